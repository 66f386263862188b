package filter

import (
	"bufio"
	"os"

	"amethyst/internal/bitmap"
	"amethyst/internal/common"
)

// Seeds for the two independent FNV-1a/64 hashes double hashing derives
// from a key (§4.1, §6 "Hash constants (normative)"). The derived h2 is
// forced odd in hashes (OR 1), making it coprime with any power-of-two bit
// count.
const (
	h1Seed uint64 = 0xA5A5A5A5A5A5A5A5
	h2Seed uint64 = 0x5A5A5A5A5A5A5A5A

	// KHashes is the fixed number of hash functions per §4.1.
	KHashes uint32 = 7
	// BitsPerEntry is the m_bits-per-entry factor per §4.1 ("10·entry_count").
	BitsPerEntry uint32 = 10

	sidecarMagic uint32 = 0xB100B100
)

// bloomFilter is a classical double-hashed Bloom filter over a packed
// bitmap (§4.1). A degenerate filter (m == 0 or k == 0) always answers
// MayContain true, per spec: "conservative" and save-meaningless.
type bloomFilter struct {
	bits bitmap.Bitmap
	k    uint32
	m    uint32
}

var _ Filter = (*bloomFilter)(nil)

// New creates an empty Bloom filter sized for n entries, using the fixed
// policy constants (§4.1): m = max(8, 10n), k = 7.
func New(n uint32) Filter {
	return NewWithParams(n, KHashes, BitsPerEntry)
}

// NewWithParams creates an empty Bloom filter sized for n entries using an
// explicit hash count and bits-per-entry factor, for callers overriding the
// default policy (§4.8 BloomKHashes, BloomBitsPerEntry).
func NewWithParams(n, k, bitsPerEntry uint32) Filter {
	m := bitsPerEntry * n
	if m < 8 {
		m = 8
	}
	return &bloomFilter{bits: bitmap.NewBitmap(m), k: k, m: m}
}

// newFromParts reconstructs a filter from stored parameters, as used when
// loading a sidecar file.
func newFromParts(k, m uint32, data []byte) Filter {
	return &bloomFilter{bits: bitmap.NewBitmapFromBytes(m, data), k: k, m: m}
}

// Add inserts key into the filter.
func (bf *bloomFilter) Add(key []byte) {
	if bf.degenerate() {
		return
	}
	h1, h2 := bf.hashes(key)
	for i := uint32(0); i < bf.k; i++ {
		pos := uint32((h1 + uint64(i)*h2) % uint64(bf.m))
		bf.bits.Add(pos)
	}
}

// MayContain returns false only if some queried bit is zero; a degenerate
// filter (m==0 or k==0) always answers true.
func (bf *bloomFilter) MayContain(key []byte) bool {
	if bf.degenerate() {
		return true
	}
	h1, h2 := bf.hashes(key)
	for i := uint32(0); i < bf.k; i++ {
		pos := uint32((h1 + uint64(i)*h2) % uint64(bf.m))
		if !bf.bits.Contains(pos) {
			return false
		}
	}
	return true
}

func (bf *bloomFilter) degenerate() bool {
	return bf.m == 0 || bf.k == 0
}

// hashes derives the two independent 64-bit hashes double hashing mixes
// together: FNV-1a/64 seeded with the normative constants, then finalized
// with the standard avalanche mix. h2 is OR-ed with 1 so it is always odd.
func (bf *bloomFilter) hashes(key []byte) (uint64, uint64) {
	h1 := common.Avalanche64(common.FNV1a64(h1Seed, key))
	h2 := common.Avalanche64(common.FNV1a64(h2Seed, key)) | 1
	return h1, h2
}

// Save writes the filter to <sstPath>.bloom using the normative sidecar
// layout (§3, §6), via the same tmp-write + fsync + rename dance used for
// SST data files (§4.2 step 5).
func Save(sstPath string, f Filter) error {
	bf, ok := f.(*bloomFilter)
	if !ok {
		return nil
	}
	final := common.BloomPath(sstPath)
	tmp := final + ".tmp"

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(file)
	if _, err := common.WriteUint32(bw, sidecarMagic); err != nil {
		file.Close()
		return err
	}
	if _, err := common.WriteUint32(bw, bf.m); err != nil {
		file.Close()
		return err
	}
	if _, err := common.WriteUint32(bw, bf.k); err != nil {
		file.Close()
		return err
	}
	nbytes := uint32(len(bf.bits.Bytes()))
	if _, err := common.WriteUint32(bw, nbytes); err != nil {
		file.Close()
		return err
	}
	if _, err := common.WriteBytes(bw, bf.bits.Bytes()); err != nil {
		file.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		return err
	}
	f2, err := os.OpenFile(final, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f2.Close()
	return f2.Sync()
}

// Load reads the Bloom sidecar for sstPath. It returns (nil, false) for any
// condition that makes the sidecar unusable — missing file, truncated
// header, bad magic, or a size mismatch between nbytes and m_bits — never
// an error: a missing/bad sidecar only disables the fast path (§3, §7).
func Load(sstPath string) (Filter, bool) {
	final := common.BloomPath(sstPath)
	file, err := os.Open(final)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	br := bufio.NewReader(file)
	magic, err := common.ReadUint32(br)
	if err != nil || magic != sidecarMagic {
		return nil, false
	}
	m, err := common.ReadUint32(br)
	if err != nil {
		return nil, false
	}
	k, err := common.ReadUint32(br)
	if err != nil {
		return nil, false
	}
	nbytes, err := common.ReadUint32(br)
	if err != nil {
		return nil, false
	}
	if nbytes != (m+7)/8 {
		return nil, false
	}
	data, err := common.ReadBytes(br, nbytes)
	if err != nil {
		return nil, false
	}
	return newFromParts(k, m, data), true
}
