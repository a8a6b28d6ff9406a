package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ErrBackendNotConfigured is returned when a backend URL is empty.
var ErrBackendNotConfigured = errors.New("backend url not configured")

// Upstream is a backend answer relayed verbatim to the caller.
type Upstream struct {
	Status      int
	ContentType string
	Body        []byte
}

// Client calls the backend services. Requests are never retried: a purchase
// that timed out may still have committed.
type Client struct {
	http *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
	}
}

// Do sends one request to baseURL+path. Any HTTP answer, 4xx and 5xx
// included, comes back as an Upstream; only transport failures are errors.
func (c *Client) Do(ctx context.Context, method, baseURL, path string, body []byte, header http.Header) (*Upstream, error) {
	if baseURL == "" {
		return nil, ErrBackendNotConfigured
	}

	req := c.http.R().SetContext(ctx)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, strings.TrimRight(baseURL, "/")+path)
	if err != nil {
		return nil, err
	}

	return &Upstream{
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
