package fakestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"catalog/internal/models"
)

// DefaultBaseURL is the public demo API.
const DefaultBaseURL = "https://fakestoreapi.com"

// AllCategories selects the unfiltered listing.
const AllCategories = "all"

var (
	// ErrNotFound is returned when the remote API has no product for an id.
	ErrNotFound = errors.New("product not found")

	errEmptyBody = errors.New("empty response body")
)

// StatusError is a non-2xx answer from the remote API.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.Code)
}

// Client talks to the fakestore REST API. Safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	breaker *gobreaker.CircuitBreaker[*http.Response]
	timeout *time.Duration
}

type Option func(*Client)

// WithHTTPClient injects the transport. Tests point it at an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client. Zero means no timeout.
// A client injected with WithHTTPClient keeps its own timeout, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// WithBreaker fails requests fast after consecutive transport errors or 5xx answers.
func WithBreaker(name string) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	c := &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: hc}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil && c.HTTPClient == hc {
		hc.Timeout = *c.timeout
	}
	return c
}

// ListURL builds the listing endpoint. The flat listing always asks for sort=asc,
// the category listing only takes a limit.
func (c *Client) ListURL(limit int, category string) string {
	if category == AllCategories {
		return fmt.Sprintf("%s/products?limit=%d&sort=asc", c.BaseURL, limit)
	}
	return fmt.Sprintf("%s/products/category/%s?limit=%d", c.BaseURL, url.PathEscape(category), limit)
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.getJSON(ctx, c.BaseURL+"/products/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products lists the catalog, or one category of it, capped at limit.
func (c *Client) Products(ctx context.Context, limit int, category string) ([]models.Product, error) {
	var out []models.Product
	if err := c.getJSON(ctx, c.ListURL(limit, category), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product fetches one product. The demo API answers 200 with an empty body for unknown ids.
func (c *Client) Product(ctx context.Context, id int) (*models.Product, error) {
	var p *models.Product
	err := c.getJSON(ctx, c.productURL(id), &p)
	if errors.Is(err, errEmptyBody) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p == nil || p.ID == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create posts a new product and returns the echoed record (the demo API assigns an id but keeps nothing).
func (c *Client) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	return c.write(ctx, http.MethodPost, c.BaseURL+"/products", in)
}

func (c *Client) Update(ctx context.Context, id int, in models.ProductInput) (*models.Product, error) {
	p, err := c.write(ctx, http.MethodPut, c.productURL(id), in)
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		p.ID = id
	}
	return p, nil
}

// write sends in and returns the echoed record. An empty echo is not an error:
// the record is rebuilt from in.
func (c *Client) write(ctx context.Context, method, reqURL string, in models.ProductInput) (*models.Product, error) {
	var p models.Product
	err := c.sendJSON(ctx, method, reqURL, in, &p)
	if errors.Is(err, errEmptyBody) {
		return &models.Product{
			Title:       in.Title,
			Price:       in.Price,
			Description: in.Description,
			Category:    in.Category,
			Image:       in.Image,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.productURL(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) productURL(id int) string {
	return fmt.Sprintf("%s/products/%d", c.BaseURL, id)
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) sendJSON(ctx context.Context, method, reqURL string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s body: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

// do sends req and turns non-2xx answers into errors.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	send := func() (*http.Response, error) {
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL, err)
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode}
		}
		return resp, nil
	}

	var (
		resp *http.Response
		err  error
	)
	if c.breaker != nil {
		resp, err = c.breaker.Execute(send)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
		}
	} else {
		resp, err = send()
	}
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Code: resp.StatusCode}
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
