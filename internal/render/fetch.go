package render

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

// maxImageBytes bounds a single page download
const maxImageBytes = 32 << 20

// ImageData is a downloaded page image
type ImageData struct {
	Content     []byte
	ContentType string
}

// Extension returns the file extension matching the content, with the dot
func (d ImageData) Extension() string {
	return mimetype.Detect(d.Content).Extension()
}

// Fetcher downloads page images
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. The API client's HTTP client should be passed
// so downloads share its cookies and retries.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Download fetches one image
func (f *Fetcher) Download(ctx context.Context, url string) (ImageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ImageData{}, ctx.Err()
		}
		return ImageData{}, fmt.Errorf("%w: failed to fetch image: %v", domain.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ImageData{}, fmt.Errorf("%w: image %s", domain.ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return ImageData{}, fmt.Errorf("%w: bad status for image: %s", domain.ErrNetworkFailure, resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return ImageData{}, fmt.Errorf("%w: failed to read image content: %v", domain.ErrNetworkFailure, err)
	}

	// Sniff the real type; CDNs often answer octet-stream
	contentType := mimetype.Detect(content).String()

	return ImageData{Content: content, ContentType: contentType}, nil
}
