package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gin-blog/pkg/domain"
)

func TestListPostsSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode([]domain.Post{{ID: "p1", Title: "Hello"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", WithTokenSource(TokenFunc(func() string { return "test-token" })))
	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var req domain.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(domain.AuthResponse{ //nolint:errcheck
			Token: "tok",
			User:  domain.User{ID: "u1", Email: req.Email},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(TokenFunc(func() string { return "" })))
	res, err := c.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "ann@example.com", res.User.Email)
}

func TestUnauthorizedHandlerRunsForEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthenticated."}) //nolint:errcheck
	}))
	defer srv.Close()

	var calls atomic.Int32
	c := New(srv.URL, WithUnauthorizedHandler(func() { calls.Add(1) }))
	ctx := context.Background()

	_, err := c.ListPosts(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	_, err = c.GetPost(ctx, "p1")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	err = c.DeletePost(ctx, "p1")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestUnauthorizedHandlerNotCalledForOtherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"}) //nolint:errcheck
	}))
	defer srv.Close()

	called := false
	c := New(srv.URL, WithUnauthorizedHandler(func() { called = true }))
	_, err := c.GetPost(context.Background(), "p1")
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.False(t, called)
}

func TestHTTPErrorDisplay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/message":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"The title field is required.","errors":{"title":["The title field is required."]}}`)) //nolint:errcheck
		case "/errors-only":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"errors":{"title":["bad"]}}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`<html>oops</html>`)) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	err := c.get(ctx, "/message", nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "The title field is required.", httpErr.Display())
	assert.Equal(t, map[string][]string{"title": {"The title field is required."}}, httpErr.FieldErrors())

	err = c.get(ctx, "/errors-only", nil)
	require.ErrorAs(t, err, &httpErr)
	assert.JSONEq(t, `{"title":["bad"]}`, httpErr.Display())

	err = c.get(ctx, "/html", nil)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "HTTP 500", httpErr.Display())
}

func TestUpdatePostUsesPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/posts/p1"))
		var in domain.PostInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(domain.Post{ID: "p1", Title: in.Title, Content: in.Content}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.UpdatePost(context.Background(), "p1", domain.PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, "T", p.Title)
}

func TestDisplayMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", DisplayMessage(assert.AnError, "fallback"))
	assert.Equal(t, "nope", DisplayMessage(&HTTPError{StatusCode: 422, Message: "nope"}, "fallback"))
}
