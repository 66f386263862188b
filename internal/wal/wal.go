package wal

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"amethyst/internal/common"
)

// walImpl is the on-disk, append-mode implementation of WAL.
type walImpl struct {
	path string
	file *os.File
}

var _ WAL = (*walImpl)(nil)

// Open creates (or reopens) a WAL at path in append mode.
func Open(path string) (WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &walImpl{path: path, file: f}, nil
}

// AppendPut appends a PUT record for key/value.
func (w *walImpl) AppendPut(key, value []byte) error {
	return w.appendRecord(Put, key, value)
}

// AppendDelete appends a DELETE record for key. vsize is always 0.
func (w *walImpl) AppendDelete(key []byte) error {
	return w.appendRecord(Delete, key, nil)
}

// appendRecord builds one record and writes it with a single Write call,
// then relies on that Write having reached the OS — no fsync per record,
// per the engine's durability goal (§4.4, §7).
func (w *walImpl) appendRecord(t RecordType, key, value []byte) error {
	ksize := uint32(len(key))
	vsize := uint32(len(value))

	// payload is the exact byte sequence the checksum covers: type, ksize,
	// vsize, key, value — NOT total_len, and not laid out identically to
	// the on-disk header (checksum sits between vsize and key on disk).
	var payload bytes.Buffer
	payload.WriteByte(byte(t))
	if _, err := common.WriteUint32(&payload, ksize); err != nil {
		return err
	}
	if _, err := common.WriteUint32(&payload, vsize); err != nil {
		return err
	}
	payload.Write(key)
	if t == Put {
		payload.Write(value)
	}
	checksum := common.FNV1a32(payload.Bytes())

	var record bytes.Buffer
	totalLen := uint32(headerSize) + ksize + vsize
	if _, err := common.WriteUint32(&record, totalLen); err != nil {
		return err
	}
	fields := payload.Bytes()
	record.Write(fields[:9]) // type + ksize + vsize
	if _, err := common.WriteUint32(&record, checksum); err != nil {
		return err
	}
	record.Write(fields[9:]) // key + value

	_, err := w.file.Write(record.Bytes())
	return err
}

// Replay reads records from the start of the file and invokes the
// corresponding hook for each clean one (§4.4). It stops silently — never
// returning an error for the condition itself — at end of file or at the
// first record that fails any structural or checksum check; everything
// read before that point has already been applied (bounded-prefix replay).
func (w *walImpl) Replay(hooks ReplayHooks) error {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		var header [headerSize]byte
		if _, err := io.ReadFull(br, header[:]); err != nil {
			return nil
		}

		totalLen, _ := common.ReadUint32(bytes.NewReader(header[0:4]))
		recType := RecordType(header[4])
		ksize, _ := common.ReadUint32(bytes.NewReader(header[5:9]))
		vsize, _ := common.ReadUint32(bytes.NewReader(header[9:13]))
		wantChecksum, _ := common.ReadUint32(bytes.NewReader(header[13:17]))

		if totalLen < headerSize {
			return nil
		}
		if recType != Put && recType != Delete {
			return nil
		}
		if recType == Delete && vsize != 0 {
			return nil
		}
		if totalLen != uint32(headerSize)+ksize+vsize {
			return nil
		}

		key := make([]byte, ksize)
		if _, err := io.ReadFull(br, key); err != nil {
			return nil
		}
		var value []byte
		if recType == Put {
			value = make([]byte, vsize)
			if _, err := io.ReadFull(br, value); err != nil {
				return nil
			}
		}

		var payload bytes.Buffer
		payload.WriteByte(header[4])
		payload.Write(header[5:13])
		payload.Write(key)
		payload.Write(value)
		if common.FNV1a32(payload.Bytes()) != wantChecksum {
			return nil
		}

		switch recType {
		case Put:
			hooks.ApplyPut(key, value)
		case Delete:
			hooks.ApplyDelete(key)
		}
	}
}

// Reset closes the stream, unlinks the file, and reopens it in append
// mode, empty. Invoked immediately after a successful flush installs a new
// SST and rewrites the manifest (§4.4).
func (w *walImpl) Reset() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	return nil
}

// Close releases the underlying file handle.
func (w *walImpl) Close() error {
	return w.file.Close()
}
