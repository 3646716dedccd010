package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/gin-blog/internal/events"
	"github.com/d60-Lab/gin-blog/internal/model"
	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/domain"
	"github.com/d60-Lab/gin-blog/pkg/jwtutil"
)

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}, &model.RevokedToken{}))

	dispatcher := service.NewEventDispatcher(events.NopPublisher{}, 64)
	stop := dispatcher.Start(1)
	t.Cleanup(func() { _ = stop(context.Background()) })

	jwt := jwtutil.NewManager("test-secret", time.Hour, "gin-blog")
	posts := service.NewPostService(repository.NewPostRepository(db), dispatcher)
	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewDBTokenRepository(db),
		jwt,
		service.WithHashCost(bcrypt.MinCost),
	)
	return NewRouter(RouterOptions{Mode: gin.TestMode}, posts, users)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func registerUser(t *testing.T, r http.Handler, name, email string) domain.AuthResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.AuthResponse](t, w)
}

func createPost(t *testing.T, r http.Handler, token, title, content string) domain.Post {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/posts", token, domain.PostInput{Title: title, Content: content})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Post](t, w)
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)
	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNewUserHasEmptyPostList(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")
	assert.NotEmpty(t, ann.Token)
	assert.Equal(t, "ann@example.com", ann.User.Email)

	w := do(t, r, http.MethodGet, "/api/posts", ann.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPostLifecycle(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")

	first := createPost(t, r, ann.Token, "First", "one")
	assert.Equal(t, ann.User.ID, first.UserID)
	time.Sleep(5 * time.Millisecond)
	second := createPost(t, r, ann.Token, "Second", "two")

	w := do(t, r, http.MethodGet, "/api/posts", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.Post](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	w = do(t, r, http.MethodGet, "/api/posts/"+first.ID, ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "First", decode[domain.Post](t, w).Title)

	bob := registerUser(t, r, "Bob", "bob@example.com")
	w = do(t, r, http.MethodPut, "/api/posts/"+first.ID, ann.Token, map[string]string{
		"title": "First, edited", "content": "one+", "user_id": bob.User.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.Post](t, w)
	assert.Equal(t, "First, edited", updated.Title)
	assert.Equal(t, ann.User.ID, updated.UserID)
	assert.Equal(t, first.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(first.CreatedAt))

	w = do(t, r, http.MethodDelete, "/api/posts/"+first.ID, ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Post deleted successfully"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/posts/"+first.ID, ann.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOtherUsersPostIsForbidden(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")
	bob := registerUser(t, r, "Bob", "bob@example.com")
	post := createPost(t, r, ann.Token, "Ann's", "private")

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, domain.PostInput{Title: "mine now", Content: "x"}},
		{http.MethodPut, domain.PostInput{}},
		{http.MethodDelete, nil},
	} {
		w := do(t, r, tc.method, "/api/posts/"+post.ID, bob.Token, tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method)
		assert.Equal(t, "Unauthorized", decode[errorBody](t, w).Message)
	}

	w := do(t, r, http.MethodGet, "/api/posts", bob.Token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/posts/"+post.ID, ann.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann's", decode[domain.Post](t, w).Title)
}

func TestUnknownPostIsNotFound(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body any
		if method == http.MethodPut {
			body = domain.PostInput{Title: "t", Content: "c"}
		}
		w := do(t, r, method, "/api/posts/does-not-exist", ann.Token, body)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "Post not found", decode[errorBody](t, w).Message)
	}
}

func TestCreatePostValidation(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")

	w := do(t, r, http.MethodPost, "/api/posts", ann.Token, domain.PostInput{Title: "", Content: "body"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, []string{"The title field is required."}, body.Errors["title"])
	assert.Equal(t, "The title field is required.", body.Message)

	w = do(t, r, http.MethodPost, "/api/posts", ann.Token, `{"title":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodGet, "/api/posts", ann.Token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMissingOrBadTokenIsUnauthenticated(t *testing.T) {
	r := setupRouter(t)

	for _, token := range []string{"", "not-a-jwt"} {
		w := do(t, r, http.MethodGet, "/api/posts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthenticated.", decode[errorBody](t, w).Message)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	r := setupRouter(t)
	ann := registerUser(t, r, "Ann", "ann@example.com")

	w := do(t, r, http.MethodGet, "/api/user", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", decode[domain.User](t, w).Name)

	w = do(t, r, http.MethodPost, "/api/logout", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/user", ann.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndRegisterFailures(t *testing.T) {
	r := setupRouter(t)
	registerUser(t, r, "Ann", "ann@example.com")

	w := do(t, r, http.MethodPost, "/api/login", "", map[string]string{"email": "ann@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[domain.AuthResponse](t, w).Token)

	w = do(t, r, http.MethodPost, "/api/login", "", map[string]string{"email": "ann@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"The provided credentials are incorrect."}, decode[errorBody](t, w).Errors["email"])

	w = do(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Ann again", "email": "ann@example.com", "password": "password123", "password_confirmation": "password123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"The email has already been taken."}, decode[errorBody](t, w).Errors["email"])

	w = do(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "password123", "password_confirmation": "different1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Errors, "password_confirmation")

	w = do(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"name": "   ", "email": "blank@example.com", "password": "password123", "password_confirmation": "password123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"The name field is required."}, decode[errorBody](t, w).Errors["name"])

	w = do(t, r, http.MethodPost, "/api/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := decode[errorBody](t, w).Errors
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}
