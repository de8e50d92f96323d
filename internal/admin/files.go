package admin

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// Files is a set of opened uploads
type Files struct {
	Uploads []domain.Upload
	files   []*os.File
}

// Close closes every opened file
func (f *Files) Close() error {
	var errs []error
	for _, file := range f.files {
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenImages opens the image files at paths in the given order. Files whose
// content is not an image are rejected before anything is sent.
func OpenImages(paths []string) (*Files, error) {
	if len(paths) == 0 {
		return nil, invalid("no files given")
	}

	out := &Files{}
	for _, path := range paths {
		mime, err := mimetype.DetectFile(path)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !strings.HasPrefix(mime.String(), "image/") {
			out.Close()
			return nil, invalid("%s is %s, not an image", path, mime.String())
		}

		file, err := os.Open(path)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		out.files = append(out.files, file)
		out.Uploads = append(out.Uploads, domain.Upload{Name: path, Reader: file})
	}
	return out, nil
}
