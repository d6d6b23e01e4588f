package gaana

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"

	// Cover art decoder registrations.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// maxArtworkReadSize limits how much of a cover art response we read.
const maxArtworkReadSize = 10 << 20 // 10 MB

// isValidImageURL reports whether rawURL serves a decodable image. The
// catalog sometimes returns artwork URLs that 404 or point at HTML
// error pages, so the body is fetched and decode-probed before the URL
// is exposed to the host.
func (c *Client) isValidImageURL(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkReadSize))
	if err != nil {
		return false
	}

	_, _, err = image.Decode(bytes.NewReader(body))
	return err == nil
}
