package ratios_api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const maxBodySize = 10 << 20

type HTTPClient struct {
	client  *http.Client
	url     string
	maxBody int64
}

func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		url:     url,
		maxBody: maxBodySize,
	}
}

// FetchRatios returns the raw response body of GET <url>. Any non-2xx status is an error.
func (c *HTTPClient) FetchRatios(ctx context.Context) ([]byte, error) {
	const op = "ratios_api.FetchRatios"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, op+": create request")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, op+": request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: bad status: %s", op, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, op+": read body")
	}

	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%s: response body exceeds %d bytes", op, c.maxBody)
	}

	return body, nil
}
