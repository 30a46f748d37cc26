package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/promptbox/internal/library/llm"
	"github.com/Laisky/promptbox/internal/web"
	chatCtl "github.com/Laisky/promptbox/internal/web/chat/controller"
	chatSvc "github.com/Laisky/promptbox/internal/web/chat/service"
	projectCtl "github.com/Laisky/promptbox/internal/web/project/controller"
	projectDto "github.com/Laisky/promptbox/internal/web/project/dto"
	projectModel "github.com/Laisky/promptbox/internal/web/project/model"
	userCtl "github.com/Laisky/promptbox/internal/web/user/controller"
	userModel "github.com/Laisky/promptbox/internal/web/user/model"
	userSvc "github.com/Laisky/promptbox/internal/web/user/service"
	"github.com/Laisky/promptbox/library/jwt"
	"github.com/Laisky/promptbox/library/throttle"
	"github.com/Laisky/promptbox/library/validate"
)

// ---------------------------------------------------------------------------
// in-memory fakes
// ---------------------------------------------------------------------------

type fakeUserSvc struct {
	mu    sync.Mutex
	users map[string]*userModel.User // account -> user
	pwds  map[string]string          // account -> plaintext (test only)
}

func newFakeUserSvc() *fakeUserSvc {
	return &fakeUserSvc{
		users: map[string]*userModel.User{},
		pwds:  map[string]string{},
	}
}

func (s *fakeUserSvc) Register(ctx context.Context,
	account, password, displayName string) (*userModel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" || password == "" {
		return nil, validate.Errorf("empty account or password")
	}
	if _, ok := s.users[account]; ok {
		return nil, errors.WithStack(userModel.ErrAccountExists)
	}

	u := userModel.NewUser()
	u.Account = account
	u.Username = displayName
	s.users[account] = u
	s.pwds[account] = password
	return u, nil
}

func (s *fakeUserSvc) Login(ctx context.Context,
	account, password string) (*userModel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account = strings.ToLower(strings.TrimSpace(account))
	u, ok := s.users[account]
	if !ok || s.pwds[account] != password {
		return nil, errors.WithStack(userModel.ErrInvalidCredentials)
	}

	return u, nil
}

func (s *fakeUserSvc) Profile(ctx context.Context,
	uid primitive.ObjectID) (*userModel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == uid {
			return u, nil
		}
	}

	return nil, errors.WithStack(userModel.ErrUserNotFound)
}

func (s *fakeUserSvc) UpdateProfile(ctx context.Context,
	uid primitive.ObjectID, params userSvc.UpdateProfileParams) (*userModel.User, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if params.Username != nil {
		u.Username = *params.Username
	}
	if params.Password != nil {
		s.pwds[u.Account] = *params.Password
	}
	return u, nil
}

type fakeProjectSvc struct {
	mu       sync.Mutex
	projects map[primitive.ObjectID]*projectModel.Project
}

func newFakeProjectSvc() *fakeProjectSvc {
	return &fakeProjectSvc{projects: map[primitive.ObjectID]*projectModel.Project{}}
}

func (s *fakeProjectSvc) List(ctx context.Context,
	owner primitive.ObjectID) ([]*projectModel.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := []*projectModel.Project{}
	for _, p := range s.projects {
		if p.Owner == owner {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *fakeProjectSvc) Create(ctx context.Context,
	owner primitive.ObjectID, name, description string) (*projectModel.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validate.Errorf("project name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := projectModel.NewProject(owner, name, description)
	s.projects[p.ID] = p
	return p, nil
}

func (s *fakeProjectSvc) Get(ctx context.Context,
	owner, id primitive.ObjectID) (*projectModel.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok || p.Owner != owner {
		return nil, errors.WithStack(projectModel.ErrProjectNotFound)
	}
	return p, nil
}

func (s *fakeProjectSvc) Update(ctx context.Context,
	owner, id primitive.ObjectID, cfg projectDto.ProjectCfg) (*projectModel.Project, error) {
	p, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Name != nil {
		p.Name = *cfg.Name
	}
	if cfg.Description != nil {
		p.Description = *cfg.Description
	}
	if cfg.Settings != nil && cfg.Settings.Temperature != nil {
		p.Settings.Temperature = *cfg.Settings.Temperature
	}
	return p, nil
}

func (s *fakeProjectSvc) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

func (s *fakeProjectSvc) AppendPrompt(ctx context.Context,
	owner, id primitive.ObjectID, role, content string) (*projectModel.Project, error) {
	if !projectModel.ValidRole(role) {
		return nil, validate.Errorf("role must be one of system/user/assistant")
	}

	p, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p.Prompts = append(p.Prompts, projectModel.Prompt{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return p, nil
}

func (s *fakeProjectSvc) AppendFile(ctx context.Context,
	owner, id primitive.ObjectID, filename string, content []byte) (*projectModel.FileRef, error) {
	p, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	file := projectModel.FileRef{
		ID:         primitive.NewObjectID().Hex(),
		Filename:   filename,
		ExternalID: "file-ext-1",
		UploadedAt: time.Now(),
	}
	p.Files = append(p.Files, file)
	return &file, nil
}

type recordingCompletion struct {
	mu     sync.Mutex
	gotReq llm.ChatRequest
	result *llm.ChatResult
	err    error
}

func (s *recordingCompletion) CreateChatCompletion(ctx context.Context,
	apiKey string, req llm.ChatRequest) (*llm.ChatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// ---------------------------------------------------------------------------
// harness
// ---------------------------------------------------------------------------

type testEnv struct {
	server     *gin.Engine
	users      *fakeUserSvc
	projects   *fakeProjectSvc
	completion *recordingCompletion
}

func testConfig() *web.Config {
	return &web.Config{
		Listen:         "localhost:0",
		Debug:          false,
		FrontendOrigin: "https://app.example.com",
		MaxBodyBytes:   1 << 20,
		RateLimit:      throttle.Config{Window: time.Minute, MaxRequests: 1000},
	}
}

func newTestEnv(t *testing.T, cfg *web.Config) *testEnv {
	t.Helper()

	logger, err := glog.NewConsoleWithName("test", glog.LevelError)
	require.NoError(t, err)

	issuer, err := jwt.New([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	users := newFakeUserSvc()
	projects := newFakeProjectSvc()
	completion := &recordingCompletion{result: &llm.ChatResult{
		Reply: "hello",
		Usage: llm.Usage{PromptTokens: 5, CompletionTokens: 1, TotalTokens: 6},
	}}

	server, err := web.NewServer(cfg, issuer, web.Controllers{
		Users:    userCtl.New(logger, users, issuer, cfg.Debug),
		Projects: projectCtl.New(logger, projects, cfg.Debug),
		Chat: chatCtl.New(logger,
			chatSvc.New(logger, projects, completion, "sk-test"), cfg.Debug),
	})
	require.NoError(t, err)

	return &testEnv{
		server:     server,
		users:      users,
		projects:   projects,
		completion: completion,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (e *testEnv) register(t *testing.T, email, password, name string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": password, "name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	token, ok := decodeBody(t, w)["token"].(string)
	require.True(t, ok)
	return token
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

// TestRegisterDuplicate verifies the second registration with the same
// email fails while the first succeeds.
func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t, testConfig())

	env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "other", "name": "A2",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "account already exists")
}

// TestLoginFailureIndistinguishable verifies wrong password and unknown
// account produce byte-identical responses.
func TestLoginFailureIndistinguishable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t, "a@x.com", "secret1", "A")

	wrongPwd := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	unknown := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPwd.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, wrongPwd.Body.String(), unknown.Body.String())
}

// TestLoginSuccess verifies a registered user can log in and use the token.
func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, ok := decodeBody(t, w)["token"].(string)
	require.True(t, ok)

	profile := env.do(t, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, profile.Code)
	require.Equal(t, "a@x.com", decodeBody(t, profile)["account"])
}

// TestAuthRequired verifies protected routes reject missing and garbage tokens.
func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, testConfig())

	w := env.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/projects", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestProjectOwnershipAsNotFound verifies a token for user B cannot see or
// modify user A's project, and the failure is indistinguishable from a
// missing project.
func TestProjectOwnershipAsNotFound(t *testing.T) {
	env := newTestEnv(t, testConfig())
	tokenA := env.register(t, "a@x.com", "secret1", "A")
	tokenB := env.register(t, "b@x.com", "secret2", "B")

	w := env.do(t, http.MethodPost, "/api/projects", tokenA, map[string]string{"name": "P"})
	require.Equal(t, http.StatusCreated, w.Code)
	projectID, ok := decodeBody(t, w)["id"].(string)
	require.True(t, ok)

	foreign := env.do(t, http.MethodGet, "/api/projects/"+projectID, tokenB, nil)
	missing := env.do(t, http.MethodGet,
		"/api/projects/"+primitive.NewObjectID().Hex(), tokenB, nil)

	require.Equal(t, http.StatusNotFound, foreign.Code)
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Equal(t, foreign.Body.String(), missing.Body.String())

	del := env.do(t, http.MethodDelete, "/api/projects/"+projectID, tokenB, nil)
	require.Equal(t, http.StatusNotFound, del.Code)

	// the owner still sees it
	own := env.do(t, http.MethodGet, "/api/projects/"+projectID, tokenA, nil)
	require.Equal(t, http.StatusOK, own.Code)
}

// TestUpdateProject verifies a partial update merges into the stored
// project without touching the other fields.
func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/projects", token, map[string]string{
		"name": "P", "description": "keep me",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	projectID, ok := decodeBody(t, w)["id"].(string)
	require.True(t, ok)

	w = env.do(t, http.MethodPut, "/api/projects/"+projectID, token, map[string]any{
		"settings": map[string]any{"temperature": 0.2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody(t, w)
	require.Equal(t, "P", updated["name"])
	require.Equal(t, "keep me", updated["description"])
	settings, ok := updated["settings"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 0.2, settings["temperature"], 1e-9)

	w = env.do(t, http.MethodPut, "/api/projects/not-a-hex-id", token, map[string]any{
		"name": "Q",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

// TestChatScenario walks the full register -> project -> prompt -> chat flow
// and asserts the message list the completion service received.
func TestChatScenario(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "P"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	require.Empty(t, created["prompts"])
	projectID := created["id"].(string)

	w = env.do(t, http.MethodPost, "/api/projects/"+projectID+"/prompts", token,
		map[string]string{"role": "system", "content": "Be terse"})
	require.Equal(t, http.StatusCreated, w.Code)
	prompts, ok := decodeBody(t, w)["prompts"].([]any)
	require.True(t, ok)
	require.Len(t, prompts, 1)

	w = env.do(t, http.MethodPost, "/api/chat/"+projectID, token,
		map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	require.Equal(t, "hello", body["reply"])
	require.NotNil(t, body["usage"])

	require.Equal(t, []llm.Message{
		{Role: "system", Content: "Be terse"},
		{Role: "user", Content: "hi"},
	}, env.completion.gotReq.Messages)
}

// TestChatUpstreamFailure verifies an external-service failure surfaces
// as a bad gateway with the upstream text attached.
func TestChatUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "P"})
	projectID := decodeBody(t, w)["id"].(string)

	env.completion.err = errors.New("model overloaded")
	w = env.do(t, http.MethodPost, "/api/chat/"+projectID, token,
		map[string]string{"message": "hi"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "model overloaded")
}

// TestUploadFile verifies the multipart upload route returns the external
// file identifier.
func TestUploadFile(t *testing.T) {
	env := newTestEnv(t, testConfig())
	token := env.register(t, "a@x.com", "secret1", "A")

	w := env.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "P"})
	projectID := decodeBody(t, w)["id"].(string)

	body := new(bytes.Buffer)
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+projectID+"/files", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	require.Equal(t, "file-ext-1", resp["fileId"])
	require.Equal(t, "notes.txt", resp["filename"])
}

// TestRateLimit verifies requests beyond the per-window budget are rejected.
func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = throttle.Config{Window: time.Minute, MaxRequests: 3}
	env := newTestEnv(t, cfg)

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

// TestCORS verifies preflight handling for the configured origin and others.
func TestCORS(t *testing.T) {
	env := newTestEnv(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example.com",
		rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// TestBodyLimit verifies oversized payloads are rejected before parsing.
func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	env := newTestEnv(t, cfg)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "a@x.com",
		"password": strings.Repeat("x", 1024),
		"name":     "A",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHealth verifies the unauthenticated health endpoint.
func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["timestamp"])
}

// TestNoRoute verifies unmatched paths return a generic not-found.
func TestNoRoute(t *testing.T) {
	env := newTestEnv(t, testConfig())

	w := env.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "not found")
}

// TestSecurityHeaders verifies the baseline headers are set on every response.
func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, testConfig())

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
