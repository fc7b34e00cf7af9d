package fetcher

import (
	"archive/zip"
	"io"

	"github.com/rotisserie/eris"
)

// maxZIPEntryBytes caps the size of an entry read into memory.
const maxZIPEntryBytes = 64 << 20

// ReadZIPSingle returns the name and contents of the only file in a ZIP
// archive. Directories are ignored.
func ReadZIPSingle(zipPath string) (string, []byte, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		return "", nil, eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
	}

	rc, err := files[0].Open()
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(rc, maxZIPEntryBytes+1))
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: read entry")
	}
	if len(data) > maxZIPEntryBytes {
		return "", nil, eris.Errorf("zip: entry %q exceeds %d bytes", files[0].Name, maxZIPEntryBytes)
	}
	return files[0].Name, data, nil
}
