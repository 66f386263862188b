package wal

// headerSize is the fixed 17-byte record header: u32 total_len | u8 type |
// u32 ksize | u32 vsize | u32 checksum (§4.4, §6).
const headerSize = 17
