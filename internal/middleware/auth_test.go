package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/domain"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	deleted  []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) Save(_ context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSessionRepo) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func (f *fakeSessionRepo) add(session *domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
}

func newRequestCtx(sessionCookie string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/user/profile")
	if sessionCookie != "" {
		ctx.Request.Header.SetCookie("session", sessionCookie)
	}
	return ctx
}

func decodeStatus(t *testing.T, ctx *fasthttp.RequestCtx) transport.StatusResponse {
	t.Helper()
	var resp transport.StatusResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func TestSessionAuth(t *testing.T) {
	newGuarded := func(repo *fakeSessionRepo) (fasthttp.RequestHandler, *string) {
		var seenUserID string
		guard := SessionAuth(repo, "session", time.Second, nil)
		handler := guard(func(ctx *fasthttp.RequestCtx) {
			id, _ := UserID(ctx)
			seenUserID = id
			ctx.SetStatusCode(fasthttp.StatusOK)
		})
		return handler, &seenUserID
	}

	t.Run("missing cookie is unauthorized", func(t *testing.T) {
		repo := newFakeSessionRepo()
		handler, seen := newGuarded(repo)

		ctx := newRequestCtx("")
		handler(ctx)

		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		resp := decodeStatus(t, ctx)
		assert.False(t, resp.Success)
		assert.Equal(t, "Unauthorized", resp.Message)
		assert.Empty(t, *seen)
	})

	t.Run("unknown session is unauthorized", func(t *testing.T) {
		repo := newFakeSessionRepo()
		handler, seen := newGuarded(repo)

		ctx := newRequestCtx(uuid.NewString())
		handler(ctx)

		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		assert.Equal(t, "Unauthorized", decodeStatus(t, ctx).Message)
		assert.Empty(t, *seen)
	})

	t.Run("expired session is rejected and lazily deleted", func(t *testing.T) {
		repo := newFakeSessionRepo()
		handler, seen := newGuarded(repo)

		session := &domain.Session{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			CreatedAt: time.Now().Add(-time.Hour),
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		repo.add(session)

		ctx := newRequestCtx(session.ID)
		handler(ctx)

		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		assert.Equal(t, "Session expired", decodeStatus(t, ctx).Message)
		assert.Empty(t, *seen)

		// the cookie is cleared as part of the response
		c := fasthttp.AcquireCookie()
		defer fasthttp.ReleaseCookie(c)
		c.SetKey("session")
		require.True(t, ctx.Response.Header.Cookie(c))
		assert.Empty(t, string(c.Value()))

		// the store delete is detached from the response
		assert.Eventually(t, func() bool {
			return repo.deleteCount() == 1
		}, time.Second, 10*time.Millisecond)

		// and the session no longer resolves afterwards
		_, err := repo.Get(context.Background(), session.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("valid session passes identity downstream", func(t *testing.T) {
		repo := newFakeSessionRepo()
		handler, seen := newGuarded(repo)

		session := &domain.Session{
			ID:        uuid.NewString(),
			UserID:    "user-42",
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
		repo.add(session)

		ctx := newRequestCtx(session.ID)
		handler(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "user-42", *seen)
		assert.Zero(t, repo.deleteCount())
	})
}

func TestUserIDAbsent(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	_, ok := UserID(ctx)
	assert.False(t, ok)
}
