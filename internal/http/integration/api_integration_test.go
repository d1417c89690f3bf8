package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geocoder89/bloodhub/internal/auth"
	"github.com/geocoder89/bloodhub/internal/db"
	apphttp "github.com/geocoder89/bloodhub/internal/http"
	"github.com/geocoder89/bloodhub/internal/notifications"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/geocoder89/bloodhub/internal/redisclient"
	"github.com/geocoder89/bloodhub/internal/repo/filestore"
	"github.com/geocoder89/bloodhub/internal/repo/postgres"
	"github.com/geocoder89/bloodhub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const testSecret = "test-secret-key"

type backend struct {
	name  string
	setup func(t *testing.T, prom *observability.Prom) apphttp.Deps
}

func fileBackend(t *testing.T, prom *observability.Prom) apphttp.Deps {
	t.Helper()

	fdb, err := filestore.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open filestore: %v", err)
	}
	return apphttp.Deps{
		Users:    filestore.NewUsersRepo(fdb, prom),
		Requests: filestore.NewRequestsRepo(fdb, prom),
		Posts:    filestore.NewPostsRepo(fdb, prom),
		Stats:    filestore.NewStatsRepo(fdb, prom),
	}
}

func postgresBackend(t *testing.T, prom *observability.Prom) apphttp.Deps {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	pool, err := db.NewPool(dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE posts, requests, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return apphttp.Deps{
		Users:    postgres.NewUsersRepo(pool, prom),
		Requests: postgres.NewRequestsRepo(pool, prom),
		Posts:    postgres.NewPostsRepo(pool, prom),
		Stats:    postgres.NewStatsRepo(pool, prom),
	}
}

var backends = []backend{
	{name: "file", setup: fileBackend},
	{name: "postgres", setup: postgresBackend},
}

type testServer struct {
	router    *gin.Engine
	redis     *miniredis.Miniredis
	uploadDir string
}

func setupServer(t *testing.T, b backend) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	deps := b.setup(t, prom)

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	photos, err := storage.NewDiskStore(uploadDir, "")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	mr := miniredis.RunT(t)
	rc := redisclient.New(redisclient.Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	notifier := notifications.NewMeteredNotifier(
		notifications.NewProtectedNotifier(
			notifications.NewRedisNotifier(rc, "bloodhub:requests"),
			notifications.ProtectedNotifierConfig{Timeout: time.Second},
		),
		prom.ObserveNotification,
	)

	deps.Env = "test"
	deps.Tokens = auth.NewManager(testSecret, 24*time.Hour)
	deps.Photos = photos
	deps.UploadDir = uploadDir
	deps.UploadMaxBytes = 64 * 1024
	deps.Notifier = notifier
	deps.Prom = prom
	deps.Gatherer = reg
	deps.ListCacheTTL = time.Minute

	router := apphttp.NewRouter(logger, deps)

	return testServer{router: router, redis: mr, uploadDir: uploadDir}
}

func (s testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	return out
}

type authBody struct {
	OK   bool `json:"ok"`
	User struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
	Code  string `json:"code"`
}

func TestEndToEnd(t *testing.T) {
	for _, b := range backends {
		b := b

		t.Run(b.name, func(t *testing.T) {
			s := setupServer(t, b)

			// register, duplicate, login
			w := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"pw","role":"ngo"}`, "")
			ngo := decode[authBody](t, w)
			if w.Code != http.StatusOK || ngo.User.ID != 1 || ngo.User.Role != "ngo" {
				t.Fatalf("register: %d %s", w.Code, w.Body.String())
			}
			if w.Header().Get("X-Request-Id") == "" {
				t.Fatalf("missing request id header")
			}

			w = s.do(t, http.MethodPost, "/api/auth/register", `{"email":"A@X.COM","password":"pw"}`, "")
			if w.Code != http.StatusBadRequest || decode[authBody](t, w).Code != "duplicate_email" {
				t.Fatalf("duplicate: %d %s", w.Code, w.Body.String())
			}

			w = s.do(t, http.MethodPost, "/api/auth/register", `{"email":"d@x.com","password":"pw","role":"donor"}`, "")
			donor := decode[authBody](t, w)

			w = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
			if w.Code != http.StatusOK || decode[authBody](t, w).Token == "" {
				t.Fatalf("login: %d %s", w.Code, w.Body.String())
			}

			// requests are open to anonymous callers and broadcast on redis
			w = s.do(t, http.MethodPost, "/api/requests", `{"phone":"555","blood_group":"O+","city":"NYC"}`, "")
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"requester_name":"Anonymous"`) {
				t.Fatalf("create request: %d %s", w.Code, w.Body.String())
			}
			s.do(t, http.MethodPost, "/api/requests", `{"requester_name":"Sam","phone":"555","blood_group":"O+","city":"NYC"}`, "")

			list := decode[struct {
				Requests []struct {
					ID int64 `json:"id"`
				} `json:"requests"`
			}](t, s.do(t, http.MethodGet, "/api/requests", "", ""))
			if len(list.Requests) != 2 || list.Requests[0].ID != 2 || list.Requests[1].ID != 1 {
				t.Fatalf("expected [2,1], got %+v", list.Requests)
			}

			// posts: donor is refused and nothing is stored
			w = s.postPhoto(t, donor.Token, "Drive", []byte("img"))
			if w.Code != http.StatusForbidden {
				t.Fatalf("donor post: %d %s", w.Code, w.Body.String())
			}

			w = s.postPhoto(t, ngo.Token, "Drive", []byte("img"))
			if w.Code != http.StatusOK {
				t.Fatalf("ngo post: %d %s", w.Code, w.Body.String())
			}
			created := decode[struct {
				Post struct {
					NGOID  int64    `json:"ngo_id"`
					Photos []string `json:"photos"`
				} `json:"post"`
			}](t, w)
			if created.Post.NGOID != 1 || len(created.Post.Photos) != 1 {
				t.Fatalf("unexpected post: %s", w.Body.String())
			}

			// the photo is served back from /uploads
			photoPath := strings.TrimPrefix(created.Post.Photos[0], "http://example.com")
			if w := s.do(t, http.MethodGet, photoPath, "", ""); w.Code != http.StatusOK || w.Body.String() != "img" {
				t.Fatalf("fetch photo %s: %d", photoPath, w.Code)
			}

			w = s.postPhoto(t, ngo.Token, "Too big", bytes.Repeat([]byte("x"), 64*1024+1))
			if w.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("oversized photo: %d %s", w.Code, w.Body.String())
			}

			// admin stats
			if w := s.do(t, http.MethodGet, "/api/admin/stats", "", ngo.Token); w.Code != http.StatusForbidden {
				t.Fatalf("ngo stats: %d", w.Code)
			}

			admin, _ := auth.NewManager(testSecret, time.Hour).Issue(99, "root@x.com", "admin")
			w = s.do(t, http.MethodGet, "/api/admin/stats", "", admin)
			stats := decode[struct {
				Stats struct {
					Users    int `json:"users"`
					Posts    int `json:"posts"`
					Requests int `json:"requests"`
				} `json:"stats"`
			}](t, w)
			if stats.Stats.Users != 2 || stats.Stats.Posts != 1 || stats.Stats.Requests != 2 {
				t.Fatalf("unexpected stats: %s", w.Body.String())
			}

			// a token signed elsewhere is rejected
			foreign, _ := auth.NewManager("someone-else", time.Hour).Issue(1, "a@x.com", "admin")
			if w := s.do(t, http.MethodGet, "/api/admin/stats", "", foreign); w.Code != http.StatusUnauthorized {
				t.Fatalf("foreign token: %d", w.Code)
			}

			if w := s.do(t, http.MethodGet, "/metrics", "", ""); !strings.Contains(w.Body.String(), `bloodhub_notifications_results_total{result="sent"} 2`) {
				t.Fatalf("notification metric missing:\n%s", w.Body.String())
			}
		})
	}
}

func TestRequireJSONContentType(t *testing.T) {
	s := setupServer(t, backend{name: "file", setup: fileBackend})

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(`phone=555`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func (s testServer) postPhoto(t *testing.T, token, title string, photo []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	fw, err := mw.CreateFormFile("photo", "drive.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(photo)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ngo/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
