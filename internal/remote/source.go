package remote

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// FileSource is a Source backed by a local file. The size and content type
// are captured at construction so the pipeline sees a stable view even if
// the file changes underneath a retry.
type FileSource struct {
	path        string
	name        string
	size        int64
	contentType string
}

// NewFileSource stats path and sniffs its content type. The extension is
// preferred; content sniffing is the fallback for extension-less captures
// straight off recording devices.
func NewFileSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		if mt, err := mimetype.DetectFile(path); err == nil {
			contentType = mt.String()
		} else {
			contentType = "application/octet-stream"
		}
	}

	return &FileSource{
		path:        path,
		name:        filepath.Base(path),
		size:        info.Size(),
		contentType: contentType,
	}, nil
}

// Open returns a fresh reader over the file bytes.
func (f *FileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Name returns the base file name.
func (f *FileSource) Name() string { return f.name }

// Size returns the file size captured at construction.
func (f *FileSource) Size() int64 { return f.size }

// ContentType returns the detected MIME type.
func (f *FileSource) ContentType() string { return f.contentType }

// Path returns the absolute local path.
func (f *FileSource) Path() string { return f.path }
