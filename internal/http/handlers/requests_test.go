package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/request"
	"github.com/geocoder89/bloodhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeRequests struct {
	mu    sync.Mutex
	items []request.Request
	lists int

	createErr error

	// afterList runs once, after the snapshot is taken and the lock released.
	afterList func()
	listCtx   context.Context
}

func (f *fakeRequests) Create(ctx context.Context, req request.CreateRequest) (request.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return request.Request{}, f.createErr
	}
	r := request.NewFromCreateRequest(int64(len(f.items)+1), req, time.Now())
	f.items = append(f.items, r)
	return r, nil
}

func (f *fakeRequests) List(ctx context.Context) ([]request.Request, error) {
	f.mu.Lock()
	f.lists++
	f.listCtx = ctx
	out := make([]request.Request, 0, len(f.items))
	for i := len(f.items) - 1; i >= 0; i-- {
		out = append(out, f.items[i])
	}
	hook := f.afterList
	f.afterList = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	seen []int64
	err  error
}

func (f *fakeNotifier) RequestCreated(ctx context.Context, req request.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, req.ID)
	return f.err
}

type requestResponse struct {
	OK      bool            `json:"ok"`
	Request request.Request `json:"request"`
}

type requestsListResponse struct {
	OK       bool              `json:"ok"`
	Requests []request.Request `json:"requests"`
}

func newRequestsRouter(repo *fakeRequests, n handlers.RequestNotifier) *gin.Engine {
	h := handlers.NewRequestsHandler(repo, n, time.Minute, nil)

	r := gin.New()
	r.POST("/api/requests", h.CreateRequest)
	r.GET("/api/requests", h.ListRequests)
	return r
}

func TestCreateRequestAppliesDefaultsAndOrders(t *testing.T) {
	repo := &fakeRequests{}
	notifier := &fakeNotifier{}
	r := newRequestsRouter(repo, notifier)

	w := doJSON(t, r, http.MethodPost, "/api/requests", `{"phone":"555","blood_group":"O+","city":"NYC"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	first := decode[requestResponse](t, w)
	if !first.OK || first.Request.ID != 1 || first.Request.Status != request.StatusOpen || first.Request.RequesterName != "Anonymous" {
		t.Fatalf("unexpected request: %+v", first)
	}

	w = doJSON(t, r, http.MethodPost, "/api/requests", `{"requester_name":"Sam","phone":"555","blood_group":"O+","city":"NYC"}`)
	second := decode[requestResponse](t, w)
	if second.Request.ID != 2 || second.Request.RequesterName != "Sam" {
		t.Fatalf("unexpected second request: %+v", second)
	}

	list := decode[requestsListResponse](t, doJSON(t, r, http.MethodGet, "/api/requests", ""))
	if len(list.Requests) != 2 || list.Requests[0].ID != 2 || list.Requests[1].ID != 1 {
		t.Fatalf("expected [2,1], got %+v", list.Requests)
	}

	if len(notifier.seen) != 2 {
		t.Fatalf("notifier saw %v, want two requests", notifier.seen)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing_phone", body: `{"blood_group":"O+","city":"NYC"}`},
		{name: "blank_city", body: `{"phone":"555","blood_group":"O+","city":"  "}`},
		{name: "empty_body", body: `{}`},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRequests{}
			w := doJSON(t, newRequestsRouter(repo, nil), http.MethodPost, "/api/requests", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 body=%s", w.Code, w.Body.String())
			}
			if decode[errorBody](t, w).Code != "validation_error" {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
			if len(repo.items) != 0 {
				t.Fatalf("nothing should be stored")
			}
		})
	}
}

func TestCreateRequestNotifierFailureIsIgnored(t *testing.T) {
	repo := &fakeRequests{}
	r := newRequestsRouter(repo, &fakeNotifier{err: errors.New("redis down")})

	w := doJSON(t, r, http.MethodPost, "/api/requests", `{"phone":"555","blood_group":"A-","city":"Pune"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", w.Code, w.Body.String())
	}
	if len(repo.items) != 1 {
		t.Fatalf("request should be stored")
	}
}

func TestCreateRequestStoreFailure(t *testing.T) {
	repo := &fakeRequests{createErr: errors.New("disk full")}

	w := doJSON(t, newRequestsRouter(repo, nil), http.MethodPost, "/api/requests", `{"phone":"555","blood_group":"A-","city":"Pune"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if decode[errorBody](t, w).Code != "internal_error" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestListRequestsCacheAndETag(t *testing.T) {
	repo := &fakeRequests{}
	r := newRequestsRouter(repo, nil)

	doJSON(t, r, http.MethodPost, "/api/requests", `{"phone":"1","blood_group":"B+","city":"Delhi"}`)

	first := doJSON(t, r, http.MethodGet, "/api/requests", "")
	etag := first.Header().Get("ETag")
	if first.Code != http.StatusOK || etag == "" {
		t.Fatalf("status = %d etag = %q", first.Code, etag)
	}

	cached := doJSON(t, r, http.MethodGet, "/api/requests", "")
	if cached.Body.String() != first.Body.String() {
		t.Fatalf("cached body differs")
	}
	if repo.lists != 1 {
		t.Fatalf("store listed %d times, want 1", repo.lists)
	}

	notModified := doJSON(t, r, http.MethodGet, "/api/requests", "", "If-None-Match", etag)
	if notModified.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", notModified.Code)
	}

	// a create drops the cached list
	doJSON(t, r, http.MethodPost, "/api/requests", `{"phone":"2","blood_group":"B+","city":"Delhi"}`)

	fresh := doJSON(t, r, http.MethodGet, "/api/requests", "", "If-None-Match", etag)
	if fresh.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after create", fresh.Code)
	}
	if len(decode[requestsListResponse](t, fresh).Requests) != 2 {
		t.Fatalf("expected the new request in the list")
	}
	if repo.lists != 2 {
		t.Fatalf("store listed %d times, want 2", repo.lists)
	}
}

func TestListRequestsRacingCreateIsNotCached(t *testing.T) {
	repo := &fakeRequests{}
	r := newRequestsRouter(repo, nil)

	listed := make(chan struct{})
	release := make(chan struct{})
	repo.afterList = func() {
		close(listed)
		<-release
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/requests", nil))
		done <- w
	}()

	// the list has read the store but not yet filled the cache
	<-listed
	w := doJSON(t, r, http.MethodPost, "/api/requests", `{"phone":"1","blood_group":"B+","city":"Delhi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	close(release)

	stale := <-done
	if stale.Code != http.StatusOK || len(decode[requestsListResponse](t, stale).Requests) != 0 {
		t.Fatalf("racing list should reflect the store before the create: %s", stale.Body.String())
	}

	fresh := decode[requestsListResponse](t, doJSON(t, r, http.MethodGet, "/api/requests", ""))
	if len(fresh.Requests) != 1 {
		t.Fatalf("stale list was cached: %+v", fresh.Requests)
	}
	if repo.lists != 2 {
		t.Fatalf("store listed %d times, want 2", repo.lists)
	}
}

func TestListRequestsUsesRequestContext(t *testing.T) {
	repo := &fakeRequests{}
	r := newRequestsRouter(repo, nil)

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil).WithContext(reqCtx)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if repo.listCtx == nil {
		t.Fatalf("store was not called")
	}
	if !errors.Is(repo.listCtx.Err(), context.Canceled) {
		t.Fatalf("store ctx err = %v, want the caller's cancellation", repo.listCtx.Err())
	}
	if _, ok := repo.listCtx.Deadline(); !ok {
		t.Fatalf("store ctx should carry a deadline")
	}
}
