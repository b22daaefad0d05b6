package fakestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestListURL(t *testing.T) {
	c := New("https://fakestoreapi.com/")

	assert.Equal(t, "https://fakestoreapi.com/products?limit=5&sort=asc", c.ListURL(5, AllCategories))
	assert.Equal(t, "https://fakestoreapi.com/products/category/jewelery?limit=8", c.ListURL(8, "jewelery"))
	assert.Equal(t, "https://fakestoreapi.com/products/category/men%27s%20clothing?limit=8", c.ListURL(8, "men's clothing"))
}

func TestCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/categories", r.URL.Path)
		_, _ = io.WriteString(w, `["electronics","jewelery"]`)
	})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"electronics", "jewelery"}, cats)
}

func TestProducts_AllAndCategory(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		_, _ = io.WriteString(w, `[{"id":1,"title":"Prod A","price":20,"category":"electronics","rating":{"rate":4,"count":10}}]`)
	})

	ps, err := c.Products(context.Background(), 5, AllCategories)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Prod A", ps[0].Title)
	assert.Equal(t, 4.0, ps[0].Rating.Rate)

	_, err = c.Products(context.Background(), 8, "electronics")
	require.NoError(t, err)

	assert.Equal(t, []string{"/products?limit=5&sort=asc", "/products/category/electronics?limit=8"}, seen)
}

func TestProduct(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/1":
			_, _ = io.WriteString(w, `{"id":1,"title":"Backpack","price":109.95,"category":"men's clothing"}`)
		case "/products/404":
			w.WriteHeader(http.StatusNotFound)
		default:
			// the demo API answers unknown ids with 200 and no body
			w.WriteHeader(http.StatusOK)
		}
	})

	p, err := c.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Backpack", p.Title)

	_, err = c.Product(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Product(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_SendsExactBody(t *testing.T) {
	var (
		calls int32
		body  string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = io.WriteString(w, `{"id":21,"title":"Novo Produto","price":99.99}`)
	})

	p, err := c.Create(context.Background(), models.ProductInput{
		Title:       "Novo Produto",
		Price:       99.99,
		Description: "Uma descrição de teste",
		Category:    "Categoria X",
		Image:       "http://example.com/image.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 21, p.ID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t,
		`{"title":"Novo Produto","price":99.99,"description":"Uma descrição de teste","category":"Categoria X","image":"http://example.com/image.png"}`,
		body)
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/3", r.URL.Path)
		var in models.ProductInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "electronics", in.Category)
		// echo without id
		_ = json.NewEncoder(w).Encode(in)
	})

	p, err := c.Update(context.Background(), 3, models.ProductInput{Title: "X", Price: 1, Category: "electronics"})
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.Equal(t, "X", p.Title)
}

func TestUpdate_EmptyEcho(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	p, err := c.Update(context.Background(), 4, models.ProductInput{Title: "Y"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)
	assert.Equal(t, "Y", p.Title)
}

func TestDelete(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = io.WriteString(w, `{"id":6}`)
	})

	require.NoError(t, c.Delete(context.Background(), 6))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/products/6", path)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Categories(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, WithHTTPClient(&http.Client{}))
	_, err := c.Categories(context.Background())
	assert.Error(t, err)
}

func TestWithTimeout(t *testing.T) {
	c := New("", WithTimeout(0))
	assert.Zero(t, c.HTTPClient.Timeout)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)

	shared := &http.Client{Timeout: 3 * time.Second}
	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(time.Second)},
		{WithTimeout(time.Second), WithHTTPClient(shared)},
	} {
		c := New("", opts...)
		assert.Same(t, shared, c.HTTPClient)
		assert.Equal(t, 3*time.Second, shared.Timeout, "injected client is left alone")
	}
}

func TestBreakerOpens(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithBreaker("test"))

	for i := 0; i < 5; i++ {
		_, err := c.Categories(context.Background())
		var se *StatusError
		require.True(t, errors.As(err, &se))
	}

	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 5, atomic.LoadInt32(&calls))
}
