package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
	"github.com/adanyl0v/go-todo-lists/internal/services"
	"github.com/adanyl0v/go-todo-lists/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.New()
	notifier := notify.NewLogNotifier(logger)

	users := services.NewUserService(logger, store)
	h := New(
		logger,
		services.NewAuthService(logger, users, store, nil, "test", []byte("secret"), time.Minute, time.Hour),
		services.NewSessionService(logger, store),
		users,
		services.NewListService(logger, store, notifier),
		services.NewTaskService(logger, store, notifier),
	)

	router := gin.New()
	RegisterRoutes(router, h)
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// register signs a user up and returns the access token.
func (s *testServer) register(t *testing.T, email, name string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     name,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == accessTokenCookie {
			return cookie.Value
		}
	}
	t.Fatal("no access token cookie")
	return ""
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %s: %v", rec.Body, err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, want, rec.Body)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			expectStatus(t, rec, http.StatusUnauthorized)
		})
	}
}

func TestRegisterConflict(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice@example.com", "alice")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "password123",
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestListsAndTasksFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com", "alice")

	rec := s.do(t, http.MethodPost, "/api/v1/lists", alice, map[string]string{"title": "Groceries"})
	expectStatus(t, rec, http.StatusCreated)
	groceries := decode[models.ListView](t, rec)
	if groceries.Type != models.ListTypeDefault || groceries.Title != "Groceries" {
		t.Fatalf("created list = %+v", groceries)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/lists/"+groceries.ID+"/tasks", alice, map[string]any{
		"title":    "oat milk",
		"priority": "high",
	})
	expectStatus(t, rec, http.StatusCreated)
	milk := decode[models.Task](t, rec)
	if milk.List != groceries.ID {
		t.Fatalf("task list = %q, want %q", milk.List, groceries.ID)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	var ids []string
	for _, list := range decode[[]models.ListView](t, rec) {
		ids = append(ids, list.ID)
	}
	if len(ids) != 5 || ids[0] != "today" || ids[3] == groceries.ID || ids[4] != groceries.ID {
		t.Fatalf("lists = %v", ids)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists/highPriority", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.ListView](t, rec); len(got.Tasks) != 1 || got.Tasks[0].ID != milk.ID {
		t.Fatalf("high priority = %+v", got)
	}

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+milk.ID, alice, map[string]any{"isCompleted": true})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Task](t, rec); !got.IsCompleted || got.CompletionDate == nil {
		t.Fatalf("completed task = %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+groceries.ID, alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.ListView](t, rec); len(got.CompletedTasks) != 0 || got.AdditionalTasks != 1 {
		t.Fatalf("collapsed view = %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+groceries.ID+"?includeCompleted=true", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.ListView](t, rec); len(got.CompletedTasks) != 1 || got.CompletedTasks[0].ID != milk.ID {
		t.Fatalf("expanded view = %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+groceries.ID+"?includeCompleted=maybe", alice, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodDelete, "/api/v1/tasks/"+milk.ID, alice, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(t, http.MethodGet, "/api/v1/tasks/"+milk.ID, alice, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodDelete, "/api/v1/lists/"+groceries.ID, alice, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+groceries.ID, alice, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestVirtualListTaskLandsInInbox(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com", "alice")

	rec := s.do(t, http.MethodPost, "/api/v1/lists/tomorrow/tasks", alice, map[string]any{"title": "call mum"})
	expectStatus(t, rec, http.StatusCreated)
	task := decode[models.Task](t, rec)
	if task.DueDate == nil {
		t.Fatal("task created in tomorrow has no due date")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	me := decode[getUserResponse](t, rec)
	if len(me.Lists) != 1 || task.List != me.Lists[0] {
		t.Fatalf("task list = %q, user lists = %v", task.List, me.Lists)
	}

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID, alice, map[string]any{"dueDate": nil})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Task](t, rec); got.DueDate != nil {
		t.Fatalf("due date not cleared: %v", got.DueDate)
	}

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+task.ID, alice, map[string]any{"dueDate": "tomorrow-ish"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodDelete, "/api/v1/lists/"+me.Lists[0], alice, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSharingAndRejections(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com", "alice")
	bob := s.register(t, "bob@example.com", "bob")

	rec := s.do(t, http.MethodGet, "/api/v1/users/me", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	bobID := decode[getUserResponse](t, rec).ID

	rec = s.do(t, http.MethodPost, "/api/v1/lists", alice, map[string]string{"title": "Trip"})
	expectStatus(t, rec, http.StatusCreated)
	trip := decode[models.ListView](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/lists/"+trip.ID+"/tasks", alice, map[string]any{"title": "tickets"})
	expectStatus(t, rec, http.StatusCreated)
	tickets := decode[models.Task](t, rec)

	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+trip.ID, bob, nil)
	expectStatus(t, rec, http.StatusNotFound)
	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+tickets.ID, bob, map[string]any{"title": "mine"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodPatch, "/api/v1/lists/"+trip.ID, alice, map[string]any{
		"members": []string{trip.Owner, bobID},
	})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/lists/"+trip.ID, bob, nil)
	expectStatus(t, rec, http.StatusOK)
	var members []string
	for _, m := range decode[models.ListView](t, rec).Members {
		members = append(members, m.ID)
	}
	if !slices.Contains(members, bobID) {
		t.Fatalf("members = %v", members)
	}

	rec = s.do(t, http.MethodPatch, "/api/v1/lists/"+trip.ID, bob, map[string]any{
		"members": []string{bobID},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(t, http.MethodPatch, "/api/v1/lists/"+trip.ID, bob, map[string]any{
		"tasks": []string{},
	})
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/lists", alice, map[string]string{"title": strings.Repeat("x", 101)})
	expectStatus(t, rec, http.StatusBadRequest)
	body := decode[map[string]any](t, rec)
	if _, ok := body["fields"]; !ok {
		t.Fatalf("validation body = %v", body)
	}
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com", "alice")

	rec := s.do(t, http.MethodPatch, "/api/v1/users/me", alice, map[string]any{
		"timezone":    "Europe/Berlin",
		"customLists": map[string]bool{"tomorrow": false},
	})
	expectStatus(t, rec, http.StatusOK)
	me := decode[getUserResponse](t, rec)
	if me.Timezone != "Europe/Berlin" || me.CustomLists[models.VirtualTomorrow] {
		t.Fatalf("profile = %+v", me)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/lists/tomorrow", alice, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/users/me/subscriptions", alice, map[string]string{
		"endpoint": "https://push.example.com/1",
	})
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(t, http.MethodDelete, "/api/v1/users/me/subscriptions", alice, map[string]string{
		"endpoint": "https://push.example.com/1",
	})
	expectStatus(t, rec, http.StatusNoContent)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com", "alice")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/logout", alice, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/api/v1/lists", alice, nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestGoogleLoginDisabled(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/google", "", nil)
	expectStatus(t, rec, http.StatusNotImplemented)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/google/callback?state=x&code=y", "", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestResolveLocation(t *testing.T) {
	h := &handlerImpl{logger: zerolog.Nop()}

	tests := []struct {
		name     string
		header   string
		timezone string
		want     string
	}{
		{name: "header wins", header: "Asia/Tokyo", timezone: "Europe/Berlin", want: "Asia/Tokyo"},
		{name: "profile fallback", timezone: "Europe/Berlin", want: "Europe/Berlin"},
		{name: "bad header falls through", header: "Nowhere/City", timezone: "Europe/Berlin", want: "Europe/Berlin"},
		{name: "utc default", want: "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set(timezoneHeader, tt.header)
			}
			loc := h.resolveLocation(c, &models.User{Timezone: tt.timezone})
			if loc.String() != tt.want {
				t.Fatalf("location = %s, want %s", loc, tt.want)
			}
		})
	}
}

func TestNewServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "access", err: &services.Error{Kind: services.ErrAccess, Msg: "Invalid List ID"}, want: http.StatusNotFound},
		{name: "permissions", err: &services.Error{Kind: services.ErrPermissions}, want: http.StatusForbidden},
		{name: "validation", err: &services.Error{Kind: services.ErrValidation}, want: http.StatusBadRequest},
		{name: "session expired", err: services.ErrSessionExpired, want: http.StatusUnauthorized},
		{name: "duplicate user", err: services.ErrUserAlreadyExists, want: http.StatusConflict},
		{name: "unknown", err: bytes.ErrTooLarge, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newServiceError(tt.err).Code; got != tt.want {
				t.Fatalf("code = %d, want %d", got, tt.want)
			}
		})
	}
}
