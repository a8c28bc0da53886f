package output

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

// HTTPOutput sends entries to a remote URL via POST, retrying transient
// failures.
type HTTPOutput struct {
	url     string
	headers map[string]string
	client  *retryablehttp.Client
}

func NewHTTPOutput(url string, headers map[string]string) *HTTPOutput {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = 5 * time.Second
	client.RetryMax = 3
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil

	return &HTTPOutput{
		url:     url,
		headers: headers,
		client:  client,
	}
}

func (h *HTTPOutput) WriteBatch(ctx context.Context, entries [][]byte) error {
	// 1. Frame entries, one line each.
	size := 0
	for _, entry := range entries {
		size += len(entry) + 1
	}
	body := frame(make([]byte, 0, size), entries)

	// 2. Create Request
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.url, body)
	if err != nil {
		return errors.Wrap(err, "http output request")
	}

	// 3. Set Headers
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	// 4. Send
	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "http output %s", h.url)
	}
	defer resp.Body.Close()

	// 5. Check Status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("http output failed with status: %d", resp.StatusCode)
	}

	return nil
}
