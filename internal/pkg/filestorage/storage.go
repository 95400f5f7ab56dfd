package filestorage

import "io"

// FileStorage stores uploaded files under slash-separated paths relative to
// its root.
type FileStorage interface {
	// Save writes r under subPath with a generated name that keeps the
	// extension of originalName, and returns the relative path.
	Save(r io.Reader, subPath, originalName string) (string, error)

	// Delete removes a stored file. Missing files are not an error.
	Delete(relPath string) error

	// URL returns the public address of a stored file.
	URL(relPath string) string
}
