package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/etl/internal/config"
)

// ErrUnexpectedStatus is returned for non-200 API responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches single flights from the API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient builds a client from the extract configuration.
func NewClient(cfg config.ExtractConfig) *Client {
	return newClient(resty.New(), cfg, 100*time.Millisecond)
}

func newClient(rc *resty.Client, cfg config.ExtractConfig, wait time.Duration) *Client {
	rc.
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("X-Auth-Token", cfg.Token).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)

	return &Client{http: rc, baseURL: cfg.BaseURL}
}

// retryCondition retries transport errors, throttling and server errors.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// URL returns the request URL for a flight id.
func (c *Client) URL(id int64) string {
	return c.baseURL + strconv.FormatInt(id, 10)
}

// Flight returns the raw JSON body of one flight. A response other than 200
// is reported as ErrUnexpectedStatus.
func (c *Client) Flight(ctx context.Context, id int64) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.URL(id))
	if err != nil {
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get flight %d: %w: %d", id, ErrUnexpectedStatus, resp.StatusCode())
	}
	return resp.Body(), nil
}
