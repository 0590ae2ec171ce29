package handler_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/gatewise/backend/api/handler"
	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/pkg/passhash"
	authUC "github.com/gatewise/backend/usecase/auth"
)

// --- in-memory repositories ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Name]; ok {
		return domain.ErrUserExists
	}
	copied := *user
	m.users[user.Name] = &copied
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByName(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[name]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUserRepo) GetCredentialsByName(_ context.Context, name string) (*domain.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[name]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.Credentials{ID: u.ID, Salt: u.Salt, PasswordHash: u.PasswordHash}, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *memSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memSessionRepo) Save(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// --- helpers ---

func newAuthHandler(t *testing.T) (*apiHandler.AuthHandler, *memUserRepo, *memSessionRepo) {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	hasher := passhash.New(passhash.Params{Memory: 8 * 1024, Time: 1, Threads: 1})
	uc := authUC.New(users, sessions, hasher, authUC.Config{
		SessionTTL:        90 * 24 * time.Hour,
		MinPasswordLength: 8,
	}, nil)
	return apiHandler.NewAuthHandler(uc, nil, nil, "session", 8), users, sessions
}

func doRequest(handler fasthttp.RequestHandler, method, uri string, body interface{}, cookie string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		payload, _ := json.Marshal(body)
		ctx.Request.SetBody(payload)
	}
	if cookie != "" {
		ctx.Request.Header.SetCookie("session", cookie)
	}
	handler(ctx)
	return ctx
}

func decodeStatus(t *testing.T, ctx *fasthttp.RequestCtx) transport.StatusResponse {
	t.Helper()
	var resp transport.StatusResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func responseCookie(t *testing.T, ctx *fasthttp.RequestCtx) *fasthttp.Cookie {
	t.Helper()
	c := fasthttp.AcquireCookie()
	t.Cleanup(func() { fasthttp.ReleaseCookie(c) })
	c.SetKey("session")
	require.True(t, ctx.Response.Header.Cookie(c), "expected a session cookie on the response")
	return c
}

func credentials(username, password string) transport.CredentialsRequest {
	return transport.CredentialsRequest{Username: username, Password: password}
}

// --- tests ---

func TestSignUp(t *testing.T) {
	t.Run("creates user", func(t *testing.T) {
		h, users, _ := newAuthHandler(t)

		ctx := doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password123"), "")

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		resp := decodeStatus(t, ctx)
		assert.True(t, resp.Success)
		assert.Equal(t, "User created", resp.Message)

		_, err := users.GetByName(context.Background(), "alice")
		assert.NoError(t, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password123"), "")
		ctx := doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password456"), "")

		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		resp := decodeStatus(t, ctx)
		assert.False(t, resp.Success)
		assert.Equal(t, "User already exists", resp.Message)
	})

	t.Run("short password rejected", func(t *testing.T) {
		h, users, _ := newAuthHandler(t)

		ctx := doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "short"), "")

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.False(t, decodeStatus(t, ctx).Success)
		_, err := users.GetByName(context.Background(), "alice")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.SetMethod(fasthttp.MethodPut)
		ctx.Request.SetRequestURI("/user/sign-up")
		ctx.Request.SetBody([]byte("{not json"))
		h.SignUp(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestSignIn(t *testing.T) {
	t.Run("issues session cookie", func(t *testing.T) {
		h, _, sessions := newAuthHandler(t)
		doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password123"), "")

		ctx := doRequest(h.SignIn, fasthttp.MethodPost, "/user/sign-in", credentials("alice", "password123"), "")

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		resp := decodeStatus(t, ctx)
		assert.True(t, resp.Success)
		assert.Equal(t, "Signed in", resp.Message)

		c := responseCookie(t, ctx)
		assert.True(t, c.HTTPOnly())
		sessionID := string(c.Value())
		require.NotEmpty(t, sessionID)

		stored, err := sessions.Get(context.Background(), sessionID)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.UserID)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)
		doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password123"), "")

		wrongPassword := doRequest(h.SignIn, fasthttp.MethodPost, "/user/sign-in", credentials("alice", "wrongpassword"), "")
		unknownUser := doRequest(h.SignIn, fasthttp.MethodPost, "/user/sign-in", credentials("mallory", "wrongpassword"), "")

		assert.Equal(t, fasthttp.StatusUnauthorized, wrongPassword.Response.StatusCode())
		assert.Equal(t, fasthttp.StatusUnauthorized, unknownUser.Response.StatusCode())
		assert.Equal(t, string(wrongPassword.Response.Body()), string(unknownUser.Response.Body()))
		assert.Equal(t, "Incorrect username or password", decodeStatus(t, wrongPassword).Message)
	})
}

func TestSignOut(t *testing.T) {
	t.Run("clears cookie and deletes session", func(t *testing.T) {
		h, _, sessions := newAuthHandler(t)
		doRequest(h.SignUp, fasthttp.MethodPut, "/user/sign-up", credentials("alice", "password123"), "")
		signIn := doRequest(h.SignIn, fasthttp.MethodPost, "/user/sign-in", credentials("alice", "password123"), "")
		sessionID := string(responseCookie(t, signIn).Value())

		ctx := doRequest(h.SignOut, fasthttp.MethodGet, "/user/sign-out", nil, sessionID)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "Signed out", decodeStatus(t, ctx).Message)

		c := responseCookie(t, ctx)
		assert.Empty(t, string(c.Value()))

		_, err := sessions.Get(context.Background(), sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("succeeds without a session", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		ctx := doRequest(h.SignOut, fasthttp.MethodGet, "/user/sign-out", nil, "")

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		resp := decodeStatus(t, ctx)
		assert.True(t, resp.Success)
		c := responseCookie(t, ctx)
		assert.Empty(t, string(c.Value()))
	})
}
