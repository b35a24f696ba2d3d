package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/domain"
	"github.com/mmaazkhanhere/learnpath/internal/event"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	apperrors "github.com/mmaazkhanhere/learnpath/pkg/errors"
	"github.com/mmaazkhanhere/learnpath/pkg/health"
	"github.com/mmaazkhanhere/learnpath/pkg/httputil"
	"github.com/mmaazkhanhere/learnpath/pkg/middleware"
)

// ============================================================================
// In-memory user store
// ============================================================================

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]domain.User)}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return apperrors.AlreadyExists("user", "email", user.Email)
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUsers) List(_ context.Context, offset, limit int) ([]domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return []domain.User{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (m *memUsers) update(id int64, fn func(*domain.User)) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	fn(&u)
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) UpdateRole(_ context.Context, id int64, role domain.Role) (*domain.User, error) {
	return m.update(id, func(u *domain.User) { u.Role = role })
}

func (m *memUsers) UpdateStatus(_ context.Context, id int64, active bool) (*domain.User, error) {
	return m.update(id, func(u *domain.User) { u.IsActive = active })
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	_, err := m.update(id, func(u *domain.User) { u.PasswordHash = hash })
	return err
}

// ============================================================================
// Mock skill and resource repositories
// ============================================================================

type mockSkillRepository struct {
	mock.Mock
}

func (m *mockSkillRepository) Create(ctx context.Context, skill *domain.Skill) error {
	args := m.Called(ctx, skill)
	return args.Error(0)
}

func (m *mockSkillRepository) GetByID(ctx context.Context, id int64) (*domain.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Skill), args.Error(1)
}

func (m *mockSkillRepository) List(ctx context.Context, offset, limit int) ([]domain.Skill, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Skill), args.Int(1), args.Error(2)
}

func (m *mockSkillRepository) Update(ctx context.Context, skill *domain.Skill) error {
	args := m.Called(ctx, skill)
	return args.Error(0)
}

func (m *mockSkillRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSkillRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Skill, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Skill), args.Error(1)
}

func (m *mockSkillRepository) AssignToUser(ctx context.Context, userID, skillID int64) error {
	args := m.Called(ctx, userID, skillID)
	return args.Error(0)
}

type mockResourceRepository struct {
	mock.Mock
}

func (m *mockResourceRepository) Create(ctx context.Context, res *domain.LearningResource, skillIDs []int64) error {
	args := m.Called(ctx, res, skillIDs)
	return args.Error(0)
}

func (m *mockResourceRepository) GetByID(ctx context.Context, id int64) (*domain.LearningResource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearningResource), args.Error(1)
}

func (m *mockResourceRepository) List(ctx context.Context, filter domain.ResourceFilter, offset, limit int) ([]domain.LearningResource, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LearningResource), args.Int(1), args.Error(2)
}

func (m *mockResourceRepository) Update(ctx context.Context, res *domain.LearningResource, skillIDs []int64) error {
	args := m.Called(ctx, res, skillIDs)
	return args.Error(0)
}

func (m *mockResourceRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ============================================================================
// Test server
// ============================================================================

type testServer struct {
	handler   http.Handler
	auth      *service.AuthService
	users     *memUsers
	skills    *mockSkillRepository
	resources *mockResourceRepository
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...func(*RouterDeps)) *testServer {
	t.Helper()
	logger := testLogger()

	ts := &testServer{
		users:     newMemUsers(),
		skills:    new(mockSkillRepository),
		resources: new(mockResourceRepository),
	}

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     "handler-test-secret-with-enough-length",
		Algorithm:  "HS256",
		DefaultTTL: 15 * time.Minute,
	}, logger)
	events := event.NewProducer(event.Discard, logger)

	directory := service.NewDirectory(ts.users, hasher, logger)
	ts.auth = service.NewAuthService(directory, tokens, events, false, logger)

	deps := RouterDeps{
		ServiceName: "learnpath",
		Version:     "test",
		Auth:        ts.auth,
		Users:       service.NewUserService(ts.users, events, logger),
		Skills:      service.NewSkillService(ts.skills, nil, logger),
		Resources:   service.NewResourceService(ts.resources, logger),
		Guard:       auth.NewGuard(tokens, directory, logger),
		Health:      health.NewHandler(),
		Logger:      logger,
		CORS:        middleware.DefaultCORSConfig(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	ts.handler = NewRouter(deps)
	return ts
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (ts *testServer) register(t *testing.T, email, role string) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Test", "email": email, "password": "pw", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created RegisterResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	return created.User.ID
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok service.AccessToken
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tok))
	return tok.AccessToken
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, ts.auth.EnsureAdmin(context.Background(), "root@x.com", "rootpw"))
	return ts.login(t, "root@x.com", "rootpw")
}

// ============================================================================
// Auth flow
// ============================================================================

func TestLearnerIsForbiddenWhereAdminSucceeds(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "a@x.com", "learner")
	learner := ts.login(t, "a@x.com", "pw")

	rec := ts.do(t, http.MethodGet, "/api/v1/users", learner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/users", ts.adminToken(t), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page struct {
		Data       []domain.User `json:"data"`
		TotalCount int           `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.TotalCount)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "A", "email": "a@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created RegisterResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "user created", created.Message)
	assert.Equal(t, domain.RoleLearner, created.User.Role)
	assert.True(t, created.User.IsActive)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "A", "email": "A@x.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode(t, rec).Error.Code)
}

func TestRegister_Rejections(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"admin self-signup", map[string]any{"name": "A", "email": "a@x.com", "password": "pw", "role": "admin"}, 403, "FORBIDDEN"},
		{"unknown role", map[string]any{"name": "A", "email": "a@x.com", "password": "pw", "role": "owner"}, 400, "VALIDATION_ERROR"},
		{"bad email", map[string]any{"name": "A", "email": "nope", "password": "pw"}, 400, "VALIDATION_ERROR"},
		{"password too long", map[string]any{"name": "A", "email": "a@x.com", "password": strings.Repeat("x", 73)}, 400, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Error.Code)
		})
	}
}

func TestRegister_AdminSignupMessage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "A", "email": "a@x.com", "password": "pw", "role": "admin",
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Message, "ADMIN_EMAIL and ADMIN_PASSWORD")
}

func TestAuthRoutes_RateLimitedPerClient(t *testing.T) {
	ts := newTestServer(t, func(d *RouterDeps) {
		d.AuthRateLimit = middleware.RateLimitConfig{RPS: 0.01, Burst: 2}
	})
	ts.register(t, "a@x.com", "")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The bucket is shared by every credential endpoint.
	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, rec).Error.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com", "")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "incorrect username or password", decode(t, rec).Error.Message)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestTokenEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "a@x.com", "")

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(url.Values{"username": {"a@x.com"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok service.AccessToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.NotEmpty(t, tok.AccessToken)

	rec = post(url.Values{"username": {"ghost@x.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "incorrect username or password", decode(t, rec).Error.Message)

	rec = post(url.Values{"username": {"a@x.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RequiresJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestProtectedEndpoint_Unauthenticated(t *testing.T) {
	ts := newTestServer(t)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "a@x.com", "contributor")

	rec := ts.do(t, http.MethodGet, "/api/v1/users/me", ts.login(t, "a@x.com", "pw"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me domain.User
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, domain.RoleContributor, me.Role)
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "a@x.com", "")
	token := ts.login(t, "a@x.com", "pw")
	admin := ts.adminToken(t)

	rec := ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d/status", id), admin, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleChangeAppliesToNewTokensOnly(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "a@x.com", "")
	old := ts.login(t, "a@x.com", "pw")
	admin := ts.adminToken(t)

	rec := ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d/role", id), admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/users", old, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/users", ts.login(t, "a@x.com", "pw"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.adminToken(t)
	root, err := ts.users.GetByEmail(context.Background(), "root@x.com")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d/role", root.ID), admin, map[string]string{"role": "learner"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/users/%d/status", root.ID), admin, map[string]bool{"is_active": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserAdmin_NotFoundAndBadID(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.adminToken(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/users/999", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/users/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decode(t, rec).Error.Code)
}

// ============================================================================
// Skills and resources
// ============================================================================

func TestSkills_PublicList(t *testing.T) {
	ts := newTestServer(t)
	ts.skills.On("List", mock.Anything, 0, 2).
		Return([]domain.Skill{{ID: 1, Title: "Go"}, {ID: 2, Title: "SQL"}}, 3, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/skills?per_page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data       []domain.Skill `json:"data"`
		TotalCount int            `json:"total_count"`
		TotalPages int            `json:"total_pages"`
		HasNext    bool           `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
}

func TestSkills_CreateRequiresContributor(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "l@x.com", "learner")
	contributorID := ts.register(t, "c@x.com", "contributor")

	ts.skills.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Skill) bool {
		return s.Slug == "go" && s.CreatedBy != nil && *s.CreatedBy == contributorID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Skill).ID = 5
	}).Return(nil)

	body := map[string]string{"title": "Go"}

	rec := ts.do(t, http.MethodPost, "/api/v1/skills", ts.login(t, "l@x.com", "pw"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/skills", ts.login(t, "c@x.com", "pw"), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var skill domain.Skill
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &skill))
	assert.Equal(t, int64(5), skill.ID)
	ts.skills.AssertNumberOfCalls(t, "Create", 1)
}

func TestSkills_DeleteRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "c@x.com", "contributor")
	ts.skills.On("Delete", mock.Anything, int64(5)).Return(nil)

	rec := ts.do(t, http.MethodDelete, "/api/v1/skills/5", ts.login(t, "c@x.com", "pw"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/skills/5", ts.adminToken(t), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSkills_AssignToMe(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "c@x.com", "contributor")
	token := ts.login(t, "c@x.com", "pw")

	rec := ts.do(t, http.MethodPost, "/api/v1/users/me/skills", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	skillID := int64(4)
	ts.skills.On("GetByID", mock.Anything, skillID).Return(&domain.Skill{ID: skillID, Title: "SQL"}, nil)
	ts.skills.On("AssignToUser", mock.Anything, id, skillID).Return(nil)
	ts.skills.On("ListByUser", mock.Anything, id).Return([]domain.Skill{{ID: skillID, Title: "SQL"}}, nil)

	rec = ts.do(t, http.MethodPost, "/api/v1/users/me/skills", token, map[string]int64{"skill_id": skillID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/users/me/skills", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var skills []domain.Skill
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &skills))
	assert.Len(t, skills, 1)
}

func TestResources_ListFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.resources.On("List", mock.Anything, domain.ResourceFilter{SkillID: 3, Type: domain.ResourceVideo}, 0, 20).
		Return([]domain.LearningResource{}, 0, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/resources?skill_id=3&type=video", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec, "data")))

	rec = ts.do(t, http.MethodGet, "/api/v1/resources?skill_id=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/resources?type=podcast", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResources_Create(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "c@x.com", "contributor")
	token := ts.login(t, "c@x.com", "pw")

	rec := ts.do(t, http.MethodPost, "/api/v1/resources", token, map[string]any{
		"title": "Tour", "url": "not a url", "resource_type": "course",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Fields, "url")

	ts.resources.On("Create", mock.Anything, mock.Anything, []int64{2}).Return(nil)

	rec = ts.do(t, http.MethodPost, "/api/v1/resources", token, map[string]any{
		"title": "Tour", "url": "https://go.dev/tour", "resource_type": "course", "difficulty": 2, "skill_ids": []int64{2, 2},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestResources_GetNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.resources.On("GetByID", mock.Anything, int64(7)).Return(nil, apperrors.NotFound("learning resource", "7"))

	rec := ts.do(t, http.MethodGet, "/api/v1/resources/7", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"learnpath","version":"test"}`, string(mustField(t, rec, "data")))
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	v, ok := fields[name]
	require.True(t, ok, "missing %q in %s", name, rec.Body.String())
	return v
}
