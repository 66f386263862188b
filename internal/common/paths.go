package common

import (
	"fmt"
	"path/filepath"
)

// PathManager resolves the fixed file names HeliosDB keeps inside a single
// flat data directory (§6): one manifest, one WAL, and a run of SST files
// plus their optional Bloom sidecars. There is no level/version hierarchy
// here, unlike the teacher's leveled layout.
type PathManager struct {
	dataDir string
}

// NewPathManager returns a PathManager rooted at dataDir.
func NewPathManager(dataDir string) *PathManager {
	return &PathManager{dataDir: dataDir}
}

// DataDir returns the root data directory.
func (p *PathManager) DataDir() string {
	return p.dataDir
}

// ManifestPath returns the path of the live manifest file.
func (p *PathManager) ManifestPath() string {
	return filepath.Join(p.dataDir, "manifest.txt")
}

// ManifestTmpPath returns the path of the transient manifest rewrite file.
func (p *PathManager) ManifestTmpPath() string {
	return filepath.Join(p.dataDir, "manifest.txt.tmp")
}

// WALPath returns the path of the live write-ahead log.
func (p *PathManager) WALPath() string {
	return filepath.Join(p.dataDir, "wal.log")
}

// SSTFileName renders the six-digit zero-padded file name for SST id.
func SSTFileName(id uint64) string {
	return fmt.Sprintf("sst_%06d.dat", id)
}

// SSTPath returns the full path of SST id.
func (p *PathManager) SSTPath(id uint64) string {
	return filepath.Join(p.dataDir, SSTFileName(id))
}

// BloomPath returns the Bloom sidecar path for an SST file path.
func BloomPath(sstPath string) string {
	return sstPath + ".bloom"
}
