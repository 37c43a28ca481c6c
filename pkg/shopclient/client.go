// Package shopclient is the HTTP client for the storefront cart and
// wishlist endpoints.
package shopclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
}

type Cart struct {
	Items []CartLine `json:"items"`
}

type MergeLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shop api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

// --- Cart ---

func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	return c.cart(ctx, http.MethodGet, "/api/v1/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, productID string) (*Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/v1/cart", map[string]string{"productId": productID})
}

func (c *Client) DecrementCartItem(ctx context.Context, productID string) (*Cart, error) {
	return c.cart(ctx, http.MethodPut, "/api/v1/cart", map[string]string{"productId": productID})
}

func (c *Client) DeleteCartItem(ctx context.Context, productID string) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape(productID), nil)
}

func (c *Client) MergeCart(ctx context.Context, lines []MergeLine) (*Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/v1/cart/merge", map[string][]MergeLine{"items": lines})
}

func (c *Client) ClearCart(ctx context.Context) (*Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/api/v1/cart", nil)
}

func (c *Client) cart(ctx context.Context, method, path string, payload interface{}) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, method, path, payload, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []CartLine{}
	}
	return &cart, nil
}

// --- Wishlist ---

func (c *Client) GetWishlist(ctx context.Context) ([]string, error) {
	return c.wishlist(ctx, http.MethodGet, "/api/v1/wishlist", nil)
}

func (c *Client) AddToWishlist(ctx context.Context, productID string) ([]string, error) {
	return c.wishlist(ctx, http.MethodPost, "/api/v1/wishlist", map[string]string{"productId": productID})
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) ([]string, error) {
	return c.wishlist(ctx, http.MethodPut, "/api/v1/wishlist", map[string]string{"productId": productID})
}

func (c *Client) MergeWishlist(ctx context.Context, productIDs []string) ([]string, error) {
	return c.wishlist(ctx, http.MethodPost, "/api/v1/wishlist/merge", map[string][]string{"productIds": productIDs})
}

func (c *Client) wishlist(ctx context.Context, method, path string, payload interface{}) ([]string, error) {
	var ids []string
	if err := c.do(ctx, method, path, payload, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// --- Transport ---

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var text string
		if decodeErr == nil && json.Unmarshal(env.Result, &text) == nil && text != "" {
			msg = text
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
