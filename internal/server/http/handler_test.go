package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "http-test-secret"

type okPinger struct{ err error }

func (p okPinger) PingContext(context.Context) error { return p.err }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	db, err := repomanager.Open(ctx, repomanager.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))

	tokens, err := auth.NewTokenService([]byte(testSecret), 7*24*time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(auth.HashParams{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}, 2)

	svc := services.NewUserService(db, m, hasher, tokens, logging.Discard())

	return NewServer("", logging.Discard(), svc, auth.NewGate(tokens), db,
		WithAllowedOrigins([]string{"http://localhost:3000"}))
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var payload map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), w.Body.String())
	}
	return w, payload
}

func assertNoSecrets(t *testing.T, w *httptest.ResponseRecorder, password string) {
	t.Helper()
	body := w.Body.String()
	assert.NotContains(t, strings.ToLower(body), "password")
	assert.NotContains(t, body, "argon2id")
	if password != "" {
		assert.NotContains(t, body, password)
	}
	assert.NotContains(t, body, testSecret)
}

func TestAnnScenario(t *testing.T) {
	h := newTestServer(t).Handler()

	// sign up
	w, body := do(t, h, http.MethodPost, "/api/auth/signup",
		`{"name":"Ann","email":"ann@x.io","password":"secret1","confirmPassword":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "User registered successfully", body["message"])
	signupToken, _ := body["token"].(string)
	require.NotEmpty(t, signupToken)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Ann", user["name"])
	assert.Equal(t, "ann@x.io", user["email"])
	annID, _ := user["id"].(string)
	require.NotEmpty(t, annID)
	assertNoSecrets(t, w, "secret1")

	// same email again
	w, body = do(t, h, http.MethodPost, "/api/auth/signup",
		`{"name":"Ann2","email":"ann@x.io","password":"secret1","confirmPassword":"secret1"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already in use", body["message"])

	// sign in
	w, body = do(t, h, http.MethodPost, "/api/auth/signin", `{"email":"ann@x.io","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sign in successful", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, annID, body["user"].(map[string]any)["id"])
	assertNoSecrets(t, w, "secret1")

	// profile with the sign-in token and with the sign-up token
	for _, tok := range []string{token, signupToken} {
		w, body = do(t, h, http.MethodGet, "/api/auth/profile", "", tok)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Welcome Ann!", body["message"])
		assert.Equal(t, map[string]any{"id": annID, "name": "Ann", "email": "ann@x.io"}, body["user"])
		assertNoSecrets(t, w, "secret1")
	}

	// wrong password
	w, body = do(t, h, http.MethodPost, "/api/auth/signin", `{"email":"ann@x.io","password":"wrong"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email or password", body["message"])

	// unknown email reads the same
	w, body = do(t, h, http.MethodPost, "/api/auth/signin", `{"email":"bob@x.io","password":"secret1"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email or password", body["message"])

	// no token
	w, _ = do(t, h, http.MethodGet, "/api/auth/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesWithoutAPIPrefix(t *testing.T) {
	h := newTestServer(t).Handler()

	w, body := do(t, h, http.MethodPost, "/auth/signup",
		`{"name":"Ann","email":"ann@x.io","password":"secret1","confirmPassword":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = do(t, h, http.MethodGet, "/auth/profile", "", body["token"].(string))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignup_ValidationMessages(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing field", body: `{"name":"","email":"a@x.io","password":"secret1","confirmPassword":"secret1"}`, want: "All fields are required"},
		{name: "absent keys", body: `{}`, want: "All fields are required"},
		{name: "mismatch", body: `{"name":"A","email":"a@x.io","password":"secret1","confirmPassword":"secret2"}`, want: "Passwords do not match"},
		{name: "short", body: `{"name":"A","email":"a@x.io","password":"abc","confirmPassword":"abc"}`, want: "Password must be at least 6 characters"},
		{name: "invalid json", body: `{"name":`, want: "Invalid request body"},
		{name: "wrong types", body: `{"name":1}`, want: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, h, http.MethodPost, "/api/auth/signup", tt.body, "")
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, body["message"])
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestSignin_MissingFields(t *testing.T) {
	h := newTestServer(t).Handler()

	for _, b := range []string{`{}`, `{"email":"a@x.io"}`, `{"password":"secret1"}`} {
		w, body := do(t, h, http.MethodPost, "/api/auth/signin", b, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email and password are required", body["message"])
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestServer(t).Handler()

	big := `{"name":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(big))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestProfile_Unauthorized(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	past := time.Now().Add(-8 * 24 * time.Hour)
	old, err := auth.NewTokenService([]byte(testSecret), 7*24*time.Hour, auth.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	expired, err := old.Issue(uuid.NewString())
	require.NoError(t, err)

	other, err := auth.NewTokenService([]byte("another-secret"), time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(uuid.NewString())
	require.NoError(t, err)

	current, err := auth.NewTokenService([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	orphan, err := current.Issue(uuid.NewString())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing header", header: "", want: "No token provided"},
		{name: "wrong scheme", header: "Basic abc", want: "Authorization header must be Bearer {token}"},
		{name: "garbage", header: "Bearer garbage", want: "Invalid token"},
		{name: "expired", header: "Bearer " + expired, want: "Token expired"},
		{name: "wrong secret", header: "Bearer " + forged, want: "Invalid token"},
		{name: "user no longer exists", header: "Bearer " + orphan, want: "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			var body messageResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Message)
		})
	}
}

// stubUsers fails every call with err.
type stubUsers struct{ err error }

func (s stubUsers) Register(context.Context, services.RegisterInput) (*services.AuthResult, error) {
	return nil, s.err
}

func (s stubUsers) Login(context.Context, services.LoginInput) (*services.AuthResult, error) {
	return nil, s.err
}

func (s stubUsers) Profile(context.Context, string) (*services.ProfileResult, error) {
	return nil, s.err
}

type allowAll struct{}

func (allowAll) Check(*http.Request) (string, error) { return "u-1", nil }

func TestInternalErrorsAreGeneric(t *testing.T) {
	leak := errors.New("pq: relation users does not exist at 10.0.0.5")
	internal := errors.Join(common.ErrorInternal, leak)
	s := NewServer("", logging.Discard(), stubUsers{err: internal}, allowAll{}, okPinger{})
	h := s.Handler()

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/auth/signup", `{"name":"A","email":"a@x.io","password":"secret1","confirmPassword":"secret1"}`},
		{http.MethodPost, "/api/auth/signin", `{"email":"a@x.io","password":"secret1"}`},
		{http.MethodGet, "/api/auth/profile", ""},
	} {
		w, body := do(t, h, tc.method, tc.path, tc.body, "")
		require.Equal(t, http.StatusInternalServerError, w.Code, tc.path)
		assert.Equal(t, map[string]any{"message": "Internal server error"}, body)
		assert.NotContains(t, w.Body.String(), "10.0.0.5")
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(common.ErrMissingFields))
	assert.Equal(t, http.StatusBadRequest, statusOf(common.ErrEmailInUse))
	assert.Equal(t, http.StatusBadRequest, statusOf(common.ErrBadCredentials))
	assert.Equal(t, http.StatusUnauthorized, statusOf(common.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(common.ErrorInternal))
}

func TestProfileResponseShape(t *testing.T) {
	svc := profileUsers{res: &services.ProfileResult{
		Message: "Welcome Ann!",
		User:    (&models.User{ID: "u-1", Name: "Ann", Email: "ann@x.io", PasswordHash: "$argon2id$x"}).Public(),
	}}
	h := NewServer("", logging.Discard(), svc, allowAll{}, okPinger{}).Handler()

	w, _ := do(t, h, http.MethodGet, "/api/auth/profile", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome Ann!","user":{"id":"u-1","name":"Ann","email":"ann@x.io"}}`, w.Body.String())
}

type profileUsers struct {
	stubUsers
	res *services.ProfileResult
}

func (p profileUsers) Profile(context.Context, string) (*services.ProfileResult, error) {
	return p.res, nil
}

func TestHealthz(t *testing.T) {
	h := NewServer("", logging.Discard(), stubUsers{}, allowAll{}, okPinger{}).Handler()
	w, body := do(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	h = NewServer("", logging.Discard(), stubUsers{}, allowAll{}, okPinger{err: errors.New("down")}).Handler()
	w, body = do(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t).Handler()

	r := httptest.NewRequest(http.MethodOptions, "/api/auth/signup", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodOptions, "/api/auth/signup", nil)
	r.Header.Set("Origin", "http://evil.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h := NewServer("", logging.Discard(), stubUsers{}, allowAll{}, okPinger{}).Handler()

	w, body := do(t, h, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["message"])

	w, _ = do(t, h, http.MethodGet, "/api/auth/signup", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
