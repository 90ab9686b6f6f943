package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"feedback-service-server/config"
	"feedback-service-server/database"
	"feedback-service-server/middleware"
	"feedback-service-server/models"
	"feedback-service-server/services"
	ws "feedback-service-server/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

type testServer struct {
	router     *gin.Engine
	store      *database.SubmissionStore
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T, adminRequired bool) *testServer {
	t.Helper()
	dir := t.TempDir()

	store, err := database.NewSubmissionStore(filepath.Join(dir, "submissions.json"))
	require.NoError(t, err)
	users, err := database.NewUserStore(filepath.Join(dir, "users.json"))
	require.NoError(t, err)

	auth := services.NewAuthService(users, config.JWTConfig{Secret: "routes-test-secret", ExpiryHours: 1})
	require.NoError(t, auth.EnsureDefaultUsers(config.AuthConfig{
		DefaultAdminEmail:    "admin@example.com",
		DefaultAdminPassword: "admin123",
		DefaultUserEmail:     "user@example.com",
		DefaultUserPassword:  "user123",
	}))
	admin, err := auth.Login(models.LoginRequest{Email: "admin@example.com", Password: "admin123"})
	require.NoError(t, err)
	user, err := auth.Login(models.LoginRequest{Email: "user@example.com", Password: "user123"})
	require.NoError(t, err)

	ai := services.NewAIService(nil, config.AIConfig{Timeout: time.Second, MaxWorkers: 1})
	router := gin.New()
	router.Use(middleware.InputValidationMiddleware())
	RegisterRoutes(router, Dependencies{
		Submissions:   services.NewSubmissionService(store, ai, nil),
		Auth:          auth,
		Hub:           ws.NewHub(),
		AdminRequired: adminRequired,
		Now:           func() time.Time { return testNow },
	})

	return &testServer{router: router, store: store, adminToken: admin.AccessToken, userToken: user.AccessToken}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestSubmitReviewNegativeWithoutModel(t *testing.T) {
	srv := newTestServer(t, true)

	w := srv.do(http.MethodPost, "/api/submit-review", `{"rating":1,"review_text":"Terrible service, rude staff"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := gjson.Parse(w.Body.String())
	assert.Equal(t, "completed", body.Get("status").String())
	assert.LessOrEqual(t, body.Get("predicted_stars").Int(), int64(2))
	assert.Contains(t, strings.ToLower(body.Get("ai_response").String()), "sorry")
	assert.Equal(t, gjson.Null, body.Get("user_id").Type)

	stored, err := srv.store.Get(body.Get("id").String())
	require.NoError(t, err)
	assert.Equal(t, "Terrible service, rude staff", stored.ReviewText)
}

func TestSubmitReviewRecordsAuthor(t *testing.T) {
	srv := newTestServer(t, true)

	w := srv.do(http.MethodPost, "/api/submit-review", `{"rating":5,"review_text":"Lovely evening"}`, srv.userToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "user", gjson.Get(w.Body.String(), "username").String())
}

func TestSubmitReviewRejectsInvalidBodies(t *testing.T) {
	srv := newTestServer(t, true)

	for name, body := range map[string]string{
		"rating zero":   `{"rating":0,"review_text":"fine"}`,
		"rating six":    `{"rating":6,"review_text":"fine"}`,
		"blank text":    `{"rating":3,"review_text":"   "}`,
		"missing text":  `{"rating":3}`,
		"not json":      `rating=3`,
		"rating string": `{"rating":"three","review_text":"fine"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/api/submit-review", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	list, err := srv.store.Load(models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitReviewPersistenceFailure(t *testing.T) {
	srv := newTestServer(t, true)
	tmp := srv.store.Path() + ".tmp"
	require.NoError(t, os.Mkdir(tmp, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "keep"), []byte("x"), 0o644))

	w := srv.do(http.MethodPost, "/api/submit-review", `{"rating":4,"review_text":"Good food"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save submission", gjson.Get(w.Body.String(), "detail").String())
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	srv := newTestServer(t, true)

	for _, path := range []string{"/api/submissions", "/api/stats", "/api/analytics", "/api/submission/sub_x"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, path, "", "").Code)
			assert.Equal(t, http.StatusForbidden, srv.do(http.MethodGet, path, "", srv.userToken).Code)
			assert.NotEqual(t, http.StatusForbidden, srv.do(http.MethodGet, path, "", srv.adminToken).Code)
		})
	}
}

func TestWebSocketFeedRequiresAdmin(t *testing.T) {
	srv := newTestServer(t, true)

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/ws/submissions", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/ws/submissions?token=garbage", "", "").Code)
	assert.Equal(t, http.StatusForbidden, srv.do(http.MethodGet, "/api/ws/submissions?token="+srv.userToken, "", "").Code)
	// Admins get through auth; a plain GET then fails the upgrade handshake.
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/ws/submissions?token="+srv.adminToken, "", "").Code)
}

func TestAdminEndpointsPublicWhenNotEnforced(t *testing.T) {
	srv := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/submissions", "", "").Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/stats", "", "").Code)
}

func TestSubmissionLookupAndUpdate(t *testing.T) {
	srv := newTestServer(t, true)

	created := srv.do(http.MethodPost, "/api/submit-review", `{"rating":3,"review_text":"It was okay"}`, "")
	require.Equal(t, http.StatusOK, created.Code)
	id := gjson.Get(created.Body.String(), "id").String()

	for _, path := range []string{"/api/submissions/" + id, "/api/submission/" + id} {
		w := srv.do(http.MethodGet, path, "", srv.adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, gjson.Get(w.Body.String(), "id").String())
	}

	missing := srv.do(http.MethodGet, "/api/submissions/sub_missing", "", srv.adminToken)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "Submission not found", gjson.Get(missing.Body.String(), "detail").String())

	patched := srv.do(http.MethodPatch, "/api/submissions/"+id, `{"status":"failed","predicted_stars":2}`, srv.adminToken)
	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())
	assert.Equal(t, "failed", gjson.Get(patched.Body.String(), "status").String())
	assert.Equal(t, int64(2), gjson.Get(patched.Body.String(), "predicted_stars").Int())
	assert.Equal(t, "It was okay", gjson.Get(patched.Body.String(), "review_text").String())

	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodPatch, "/api/submissions/sub_missing", `{"status":"failed"}`, srv.adminToken).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodPatch, "/api/submissions/"+id, `{}`, srv.adminToken).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodPatch, "/api/submissions/"+id, `{"status":"pending"}`, srv.adminToken).Code)

	reprocessed := srv.do(http.MethodPost, "/api/submissions/"+id+"/reprocess", `{}`, srv.adminToken)
	require.Equal(t, http.StatusOK, reprocessed.Code, reprocessed.Body.String())
	assert.Equal(t, "completed", gjson.Get(reprocessed.Body.String(), "status").String())
	assert.Equal(t, int64(3), gjson.Get(reprocessed.Body.String(), "predicted_stars").Int())
	assert.Equal(t, http.StatusNotFound, srv.do(http.MethodPost, "/api/submissions/sub_missing/reprocess", `{}`, srv.adminToken).Code)
}

func TestListSubmissionsFiltersByRating(t *testing.T) {
	srv := newTestServer(t, true)

	for _, body := range []string{
		`{"rating":5,"review_text":"Excellent"}`,
		`{"rating":2,"review_text":"Cold food"}`,
		`{"rating":5,"review_text":"Amazing staff"}`,
	} {
		require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/api/submit-review", body, "").Code)
	}

	all := srv.do(http.MethodGet, "/api/submissions", "", srv.adminToken)
	require.Equal(t, http.StatusOK, all.Code)
	assert.Equal(t, int64(3), gjson.Get(all.Body.String(), "#").Int())

	fives := srv.do(http.MethodGet, "/api/submissions?rating=5", "", srv.adminToken)
	require.Equal(t, http.StatusOK, fives.Code)
	assert.Equal(t, []interface{}{float64(5), float64(5)}, gjson.Get(fives.Body.String(), "#.rating").Value())

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/submissions?rating=abc", "", srv.adminToken).Code)

	stats := srv.do(http.MethodGet, "/api/stats", "", srv.adminToken)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.Equal(t, int64(3), gjson.Get(stats.Body.String(), "total_reviews").Int())
	assert.Equal(t, int64(2), gjson.Get(stats.Body.String(), "rating_distribution.5").Int())
}

func TestAnalyticsWeekOnEmptyStore(t *testing.T) {
	srv := newTestServer(t, true)

	w := srv.do(http.MethodGet, "/api/analytics?date_range=week", "", srv.adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	body := gjson.Parse(w.Body.String())
	assert.Equal(t, int64(0), body.Get("total_reviews").Int())
	assert.Equal(t, int64(7), body.Get("trends_over_time.labels.#").Int())
	assert.Equal(t, "2025-03-04", body.Get("trends_over_time.labels.0").String())
	assert.Equal(t, "2025-03-10", body.Get("trends_over_time.labels.6").String())
	assert.Equal(t, gjson.Null, body.Get("ai_accuracy").Type)
	assert.Equal(t, int64(1), body.Get("insights.#").Int())
}

func TestAnalyticsRejectsBadQuery(t *testing.T) {
	srv := newTestServer(t, true)

	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/analytics?start_date=yesterday", "", srv.adminToken).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(http.MethodGet, "/api/analytics?rating=x", "", srv.adminToken).Code)
	assert.Equal(t, http.StatusOK, srv.do(http.MethodGet, "/api/analytics?start_date=2025-03-01&end_date=2025-03-10", "", srv.adminToken).Code)
}

func TestRegisterLoginAndMe(t *testing.T) {
	srv := newTestServer(t, true)

	mismatch := srv.do(http.MethodPost, "/api/auth/register",
		`{"username":"bob","email":"bob@example.com","password":"secret1","confirm_password":"secret2"}`, "")
	assert.Equal(t, http.StatusBadRequest, mismatch.Code)
	assert.Equal(t, "Passwords do not match", gjson.Get(mismatch.Body.String(), "detail").String())

	registered := srv.do(http.MethodPost, "/api/auth/register",
		`{"username":"bob","email":"bob@example.com","password":"secret1","confirm_password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, registered.Code, registered.Body.String())
	assert.Equal(t, "user", gjson.Get(registered.Body.String(), "user.role").String())

	duplicate := srv.do(http.MethodPost, "/api/auth/register",
		`{"username":"bobby","email":"bob@example.com","password":"secret1","confirm_password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, duplicate.Code)
	assert.Equal(t, "Email already registered", gjson.Get(duplicate.Body.String(), "detail").String())

	badLogin := srv.do(http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"wrong-one"}`, "")
	assert.Equal(t, http.StatusUnauthorized, badLogin.Code)

	login := srv.do(http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, login.Code)
	token := gjson.Get(login.Body.String(), "access_token").String()

	me := srv.do(http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "bob@example.com", gjson.Get(me.Body.String(), "email").String())
	assert.False(t, gjson.Get(me.Body.String(), "password_hash").Exists())

	assert.Equal(t, http.StatusUnauthorized, srv.do(http.MethodGet, "/api/auth/me", "", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, true)

	health := srv.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "ok", gjson.Get(health.Body.String(), "status").String())

	metrics := srv.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, metrics.Code)
}
