package platform

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elnormous/contenttype"
)

// maxImageBytes is Discord's upload cap for emoji, icons and avatars.
const maxImageBytes = 256 << 10

var (
	ErrImageTooLarge = errors.New("image exceeds 256 KiB")
	ErrNotAnImage    = errors.New("url did not return an image")
)

var imageTypes = []contenttype.MediaType{
	contenttype.NewMediaType("image/png"),
	contenttype.NewMediaType("image/jpeg"),
	contenttype.NewMediaType("image/gif"),
	contenttype.NewMediaType("image/webp"),
}

// fetchImage downloads url and returns it as a data URI suitable for the
// image fields of the Discord API.
func fetchImage(ctx context.Context, hc *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", ErrImageTooLarge
	}

	header := resp.Header.Get("Content-Type")
	if header == "" {
		header = http.DetectContentType(data)
	}
	mt := contenttype.NewMediaType(header)
	mime := ""
	for _, allowed := range imageTypes {
		if mt.Type == allowed.Type && mt.Subtype == allowed.Subtype {
			mime = allowed.Type + "/" + allowed.Subtype
			break
		}
	}
	if mime == "" {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, header)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
