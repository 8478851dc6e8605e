package models

import (
	"os"
	"path/filepath"
	"time"
)

// SourceFingerprint identifies one version of a raw source file.
// Presence plus name, size and mtime is all that is compared.
type SourceFingerprint struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"` // Unix nanoseconds
}

// FingerprintFile stats path and returns its fingerprint
func FingerprintFile(path string) (SourceFingerprint, error) {
	st, err := os.Stat(path)
	if err != nil {
		return SourceFingerprint{}, err
	}
	return SourceFingerprint{
		Name:    filepath.Base(path),
		Size:    st.Size(),
		ModTime: st.ModTime().UnixNano(),
	}, nil
}

// SnapshotInfo describes a stored snapshot of the cleaned trip table
type SnapshotInfo struct {
	Trip      SourceFingerprint `json:"trip"`
	Zone      SourceFingerprint `json:"zone"`
	RowCount  int               `json:"row_count"`
	CreatedAt time.Time         `json:"created_at"`
}
