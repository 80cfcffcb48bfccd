package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"cafe-reservation/internal/config"
)

// Client talks to the external asset host that stores payment proof images.
// The host accepts a binary image and returns a stable URL; uploads are
// addressable by a public id derived from the file name so a replaced proof
// can be deleted.
type Client struct {
	cfg    config.AssetsConfig
	client *http.Client
}

func NewClient(cfg config.AssetsConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload sends the image and returns its hosted URL.
func (c *Client) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	_ = writer.WriteField("public_id", path.Join(c.cfg.Folder, name))
	_ = writer.WriteField("api_key", c.cfg.APIKey)
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/image/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("asset host returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("malformed asset host response: %w", err)
	}
	return parsed.SecureURL, nil
}

// Delete removes a previously uploaded image, addressed by its URL. Callers
// treat failures as non-fatal.
func (c *Client) Delete(ctx context.Context, hostedURL string) error {
	publicID := ExtractPublicID(hostedURL)
	if publicID == "" {
		return fmt.Errorf("cannot derive public id from %s", hostedURL)
	}

	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/image/destroy", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset host returned %d deleting %s", resp.StatusCode, publicID)
	}
	return nil
}

// ExtractPublicID recovers the asset's public id from a hosted URL:
// everything after the upload/version segment, without the file extension.
func ExtractPublicID(hostedURL string) string {
	parsed, err := url.Parse(hostedURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "upload" || i+1 >= len(segments) {
			continue
		}
		rest := segments[i+1:]
		// Skip a version segment like v1712345678.
		if strings.HasPrefix(rest[0], "v") && len(rest) > 1 {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		if ext := path.Ext(id); ext != "" {
			id = strings.TrimSuffix(id, ext)
		}
		return id
	}
	return ""
}
