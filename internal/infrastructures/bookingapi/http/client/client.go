package bookingapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
)

const (
	defaultBaseURL = "http://localhost:8090"
	maxBodyBytes   = 4 << 20
)

// Client talks to the remote booking service. It implements the search,
// rates, booking, payment, notification, quest and saved listing ports.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header map[string]string

	// sentinels returned for 404 and 409 instead of ErrRejected
	notFound error
	conflict error
}

// do sends the request and returns the raw "data" member of the envelope.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal booking api request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("booking api request: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: booking api request: %v", derr.ErrSourceTemporary, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read booking api response: %v", derr.ErrSourceTemporary, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp, raw, r)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode booking api response: %w", err)
	}
	return env.Data, nil
}

func statusError(resp *http.Response, raw []byte, r request) error {
	var env dto.Envelope
	_ = json.Unmarshal(raw, &env)
	detail := resp.Status
	if env.Error != "" {
		detail = resp.Status + ": " + env.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && r.notFound != nil:
		return fmt.Errorf("%w: %s %s: %s", r.notFound, r.method, r.path, detail)
	case resp.StatusCode == http.StatusConflict && r.conflict != nil:
		return fmt.Errorf("%w: %s %s: %s", r.conflict, r.method, r.path, detail)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s %s: %s", derr.ErrSourceTemporary, r.method, r.path, detail)
	default:
		return fmt.Errorf("%w: %s %s: %s", derr.ErrRejected, r.method, r.path, detail)
	}
}

// Ping checks that the booking service answers. It feeds the readiness
// endpoint and never retries.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/v1/health"})
	return err
}

func decodeData[T any](data []byte, what string) (T, error) {
	var out T
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", what, err)
	}
	return out, nil
}

func pathID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

func newPartnerOrderID() string {
	return uuid.NewString()
}
