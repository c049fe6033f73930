package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var ErrBlobNotFound = errors.New("blob not found")

// Client is the contract required from the external content-addressed
// blob service: delete by id, nothing else.
type Client interface {
	DeleteByID(ctx context.Context, blobID string) error
}

// NewClient builds an HTTP media client or a noop client when the
// service is unconfigured.
func NewClient(baseURL, token string) Client {
	if baseURL == "" {
		log.Printf("media service disabled, using noop: empty base url")
		return noopClient{}
	}
	return &httpClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// DeleteByID issues DELETE /blobs/{id}. A 404 means the blob is already
// gone, which the sweep treats as success.
func (c *httpClient) DeleteByID(ctx context.Context, blobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/blobs/%s", c.baseURL, blobID), nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrBlobNotFound
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("media delete %s: status %d", blobID, resp.StatusCode)
	}
}

type noopClient struct{}

func (noopClient) DeleteByID(ctx context.Context, blobID string) error {
	log.Printf("media noop delete blob_id=%s", blobID)
	return nil
}
