package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/d60-Lab/gin-blog/pkg/domain"
)

// Client is the blog API client. Requests carry no timeout of their own;
// cancel through the context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client, *Transport)

// WithTokenSource sets where the bearer token is read from.
func WithTokenSource(ts TokenSource) Option {
	return func(_ *Client, t *Transport) { t.Tokens = ts }
}

// WithUnauthorizedHandler registers fn to run on every 401 response.
func WithUnauthorizedHandler(fn func()) Option {
	return func(_ *Client, t *Transport) { t.OnUnauthorized = fn }
}

// WithBaseTransport replaces the underlying round tripper.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(_ *Client, t *Transport) { t.Base = rt }
}

// New creates a new API client. baseURL includes the API prefix, for example
// http://localhost:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	t := &Transport{}
	for _, o := range opts {
		o(c, t)
	}
	c.httpClient = &http.Client{Transport: t}
	return c
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.post(ctx, "/register", req, &out); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	req := domain.LoginRequest{Email: email, Password: password}
	if err := c.post(ctx, "/login", req, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// CurrentUser returns the account the current token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/user", &u); err != nil {
		return nil, fmt.Errorf("client.CurrentUser: %w", err)
	}
	return &u, nil
}

// ListPosts returns the caller's posts, newest first.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := c.get(ctx, "/posts", &posts); err != nil {
		return nil, fmt.Errorf("client.ListPosts: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// GetPost fetches a single post by ID.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	if err := c.get(ctx, "/posts/"+url.PathEscape(id), &p); err != nil {
		return nil, fmt.Errorf("client.GetPost: %w", err)
	}
	return &p, nil
}

// CreatePost creates a new post.
func (c *Client) CreatePost(ctx context.Context, in domain.PostInput) (*domain.Post, error) {
	var p domain.Post
	if err := c.post(ctx, "/posts", in, &p); err != nil {
		return nil, fmt.Errorf("client.CreatePost: %w", err)
	}
	return &p, nil
}

// UpdatePost replaces the title and content of a post.
func (c *Client) UpdatePost(ctx context.Context, id string, in domain.PostInput) (*domain.Post, error) {
	var p domain.Post
	if err := c.doRequest(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), in, &p); err != nil {
		return nil, fmt.Errorf("client.UpdatePost: %w", err)
	}
	return &p, nil
}

// DeletePost permanently removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeletePost: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}
	var apiErr struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(respBody, &apiErr) != nil {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message, Errors: apiErr.Errors}
}
