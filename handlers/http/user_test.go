package httpHandler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"user-server/repositories"
	"user-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	store  *repositories.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := repositories.NewMemoryStore()
	uc := usecases.NewUserUseCase(store.Users(), store.Books(), nil, log)
	users := NewUserHandler(uc, log)
	books := NewBookHandler(uc, log)

	r := gin.New()
	r.GET("/users", users.GetAllUsers)
	r.POST("/user", users.CreateUser)
	r.GET("/users/:id", users.GetUser)
	r.PUT("/users/:id", users.UpdateUser)
	r.DELETE("/users/:id", users.DeleteUser)
	r.GET("/users/:id/books", books.GetUserBooks)
	r.POST("/users/:id/books", books.CreateUserBook)
	r.DELETE("/books/:id", books.DeleteBook)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w, decoded
}

func userBody(email, username, password string) map[string]string {
	return map[string]string{"email": email, "username": username, "password": password}
}

func (e *testEnv) count(t *testing.T, id uint) int64 {
	t.Helper()
	n, err := e.store.Users().Count(context.Background(), id)
	require.NoError(t, err)
	return n
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateUser_Success(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, body["status"])
	assert.Equal(t, map[string]interface{}{"email": "a@x.com", "username": "a"}, body["data"])
	assert.Contains(t, body, "errors")
	assert.Nil(t, body["errors"])
	assert.NotContains(t, body, "detail")
}

func TestCreateUser_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		want    string
		notWant string
	}{
		{"same user again", userBody("a@x.com", "a", "p"), "Email already exists", ""},
		{"same email", userBody("a@x.com", "b", "p"), "Email already exists", "Username"},
		{"same username", userBody("b@x.com", "a", "p"), "Username already exists", "Email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w, _ := env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))
			require.Equal(t, http.StatusOK, w.Code)

			w, body := env.do(t, http.MethodPost, "/user", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["status"])
			assert.Equal(t, tt.want, body["detail"])
			if tt.notWant != "" {
				assert.NotContains(t, body["detail"], tt.notWant)
			}

			errs, ok := body["errors"].([]interface{})
			require.True(t, ok)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].(map[string]interface{})["message"])
		})
	}
}

func TestCreateUser_MalformedInput(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/user", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["status"])

	w, body = env.do(t, http.MethodPost, "/user", map[string]string{"email": "nope", "username": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := body["errors"].([]interface{})
	fields := map[string]string{}
	for _, e := range errs {
		item := e.(map[string]interface{})
		fields[item["field"].(string)] = item["message"].(string)
	}
	assert.Equal(t, "value is not a valid email address", fields["email"])
	assert.Equal(t, "field required", fields["password"])

	assert.Zero(t, env.count(t, 1))
}

// ---------------------------------------------------------------------------
// List and get
// ---------------------------------------------------------------------------

func TestGetAllUsers_Empty(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, []interface{}{}, body["data"])
}

func TestPasswordNeverReturned(t *testing.T) {
	env := newTestEnv(t)

	responses := []*httptest.ResponseRecorder{}
	w, _ := env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "hunter2"))
	responses = append(responses, w)
	w, _ = env.do(t, http.MethodGet, "/users", nil)
	responses = append(responses, w)
	w, _ = env.do(t, http.MethodGet, "/users/1", nil)
	responses = append(responses, w)
	w, _ = env.do(t, http.MethodPut, "/users/1", userBody("b@x.com", "b", "hunter2"))
	responses = append(responses, w)

	for _, w := range responses {
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "password")
		assert.NotContains(t, w.Body.String(), "hunter2")
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))

	w, body := env.do(t, http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "email": "a@x.com", "username": "a"}, body["data"])

	w, body = env.do(t, http.MethodGet, "/users/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["detail"])

	w, _ = env.do(t, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))

	w, body := env.do(t, http.MethodPut, "/users/1", userBody("new@x.com", "new", "ignored"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "email": "new@x.com", "username": "new"}, body["data"])

	stored, err := env.store.Users().GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "p", stored.Password)
}

func TestUpdateUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPut, "/users/9999", userBody("a@x.com", "a", "p"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["status"])
	assert.Zero(t, env.count(t, 9999))
}

func TestUpdateUser_Conflict(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))
	env.do(t, http.MethodPost, "/user", userBody("b@x.com", "b", "p"))

	w, body := env.do(t, http.MethodPut, "/users/2", userBody("a@x.com", "a", "p"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", body["detail"])

	w, body = env.do(t, http.MethodPut, "/users/2", userBody("b@x.com", "a", "p"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists", body["detail"])
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/user", userBody("a@x.com", "a", "p"))

	w, body := env.do(t, http.MethodDelete, "/users/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User 1 deleted", body["data"])
	assert.Zero(t, env.count(t, 1))

	w, body = env.do(t, http.MethodDelete, "/users/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["detail"])
}

func TestDeleteUser_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodDelete, "/users/-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id: -1", body["detail"])
}

func TestRespondUseCaseError_NotFoundDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	tests := []struct {
		name     string
		notFound string
		want     string
	}{
		{"named target", "User not found", "User not found"},
		{"operation that cannot miss", "", "Not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/users", nil)

			respondUseCaseError(c, log, repositories.ErrNotFound, tt.notFound)

			assert.Equal(t, http.StatusNotFound, w.Code)
			var body Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Detail)
		})
	}
}
