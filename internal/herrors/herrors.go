// Package herrors centralizes HeliosDB's sentinel errors on top of
// cockroachdb/errors, so callers get stack traces via %+v in development
// while errors.Is still works for control flow (§4.6).
package herrors

import "github.com/cockroachdb/errors"

var (
	// ErrCorruptSST is wrapped with the offending file path via
	// errors.Wrapf whenever an SST fails its magic/checksum validation.
	ErrCorruptSST = errors.New("heliosdb: corrupt sstable")

	// ErrKeyNotFound is returned by Engine.Get when no memtable entry or
	// SST probe resolves the key to a live value.
	ErrKeyNotFound = errors.New("heliosdb: key not found")

	// ErrEngineClosed is returned by any engine call made after Close.
	ErrEngineClosed = errors.New("heliosdb: engine is closed")
)

// WrapCorruptSST annotates ErrCorruptSST with the path of the file that
// failed validation.
func WrapCorruptSST(path string) error {
	return errors.Wrapf(ErrCorruptSST, "path=%s", path)
}

