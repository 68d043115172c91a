// Package uploader sends reference photos to an external image-hosting API.
// Upload failures are always non-fatal for the caller: an order is saved
// without its photo rather than not at all.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"example.com/bakehouse/services/orders/config"

	"github.com/pkg/errors"
)

// ErrDisabled is returned when no upload service is configured.
var ErrDisabled = errors.New("photo upload is not configured")

// Client uploads an image and returns its public URL.
type Client interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// ImgBBClient talks to an imgbb-style upload API: a multipart POST with the
// image bytes, answered by a JSON envelope carrying the hosted URL.
type ImgBBClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewImgBBClient builds a client from configuration. When uploads are
// disabled it returns a client that fails every call with ErrDisabled.
func NewImgBBClient(cfg config.UploadConfig) Client {
	if !cfg.Enabled || cfg.APIKey == "" {
		return disabledClient{}
	}
	return &ImgBBClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload sends the image and returns the hosted URL.
func (c *ImgBBClient) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", errors.Wrap(err, "failed to build upload form")
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.Wrap(err, "failed to write image data")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, &body)
	if err != nil {
		return "", errors.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "upload request failed")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "failed to read upload response")
	}

	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("upload service returned status %d", res.StatusCode)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, "failed to parse upload response")
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return "", errors.New("upload service reported failure")
	}

	return parsed.Data.URL, nil
}

type disabledClient struct{}

func (disabledClient) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	return "", ErrDisabled
}
