package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/store"
)

const httpTimeout = 30 * time.Second

// Client talks to a Server.
type Client struct {
	base    string
	http    *http.Client
	backoff cache.Backoff
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeout},
		backoff: cache.DefaultBackoff,
	}
}

// SaveDesign posts d and stores the assigned id in it. Oversized designs
// are refused before any request is made.
func (c *Client) SaveDesign(ctx context.Context, d *payload.Design) (string, error) {
	data, err := payload.Encode(d, payload.MaxBytes)
	if err != nil {
		return "", err
	}
	var resp idResponse
	if err := c.do(ctx, http.MethodPost, "/designs", data, &resp); err != nil {
		return "", err
	}
	d.ID = resp.ID
	return resp.ID, nil
}

// GetDesign fetches a saved design.
func (c *Client) GetDesign(ctx context.Context, id string) (*payload.Design, error) {
	var d payload.Design
	if err := c.do(ctx, http.MethodGet, "/designs/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AddItem posts item and stores the assigned id in it.
func (c *Client) AddItem(ctx context.Context, item *payload.CartItem) error {
	data, err := payload.Encode(item, payload.MaxBytes)
	if err != nil {
		return err
	}
	var resp idResponse
	if err := c.do(ctx, http.MethodPost, "/cart/items", data, &resp); err != nil {
		return err
	}
	item.ID = resp.ID
	return nil
}

// Items lists the items of cartID.
func (c *Client) Items(ctx context.Context, cartID string) ([]payload.CartItem, error) {
	var items []payload.CartItem
	err := c.do(ctx, http.MethodGet, "/cart/items?cart="+url.QueryEscape(cartID), nil, &items)
	return items, err
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &products)
	return products, err
}

// ProductBySlug fetches one product.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(slug), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Quote prices a layer set on the server.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode quote request: %w", err)
	}
	var resp QuoteResponse
	if err := c.do(ctx, http.MethodPost, "/quote", data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, v any) error {
	return c.backoff.Do(ctx, func() error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodePersistence, err, "%s %s", method, path))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return checkStatus(resp)
		}
		if v == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "decode %s response", path)
		}
		return nil
	})
}

// checkStatus turns an error response into a coded error. 5xx responses
// are retryable; not-found responses wrap store.ErrNotFound.
func checkStatus(resp *http.Response) error {
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) != nil || body.Error == "" {
		body.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	if body.Code == "" {
		body.Code = codeFor(resp.StatusCode)
	}

	var err error = errors.New(body.Code, "%s", body.Error)
	if body.Code == errors.ErrCodeNotFound {
		err = errors.Wrap(errors.ErrCodeNotFound, store.ErrNotFound, "%s", body.Error)
	}
	if resp.StatusCode >= 500 {
		return cache.Retryable(err)
	}
	return err
}

var (
	_ store.Designs  = (*Client)(nil)
	_ store.Cart     = (*Client)(nil)
	_ catalog.Source = (*Client)(nil)
)
