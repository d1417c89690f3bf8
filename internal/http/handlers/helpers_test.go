package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
}

type errorBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func doJSON(t *testing.T, r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}
	return out
}

// fakeUsers is an in-memory users store with the same duplicate rules as the
// real backends.
type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]user.User
	next  int64

	getErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]user.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if user.NormalizeEmail(u.Email) == user.NormalizeEmail(in.Email) {
			return user.User{}, user.ErrEmailTaken
		}
	}

	f.next++
	u := user.User{
		ID:           f.next,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Name:         in.Name,
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return user.User{}, f.getErr
	}
	for _, u := range f.users {
		if user.NormalizeEmail(u.Email) == user.NormalizeEmail(email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []user.User{}
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeUsers) delete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}
