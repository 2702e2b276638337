package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(0)
	t.Cleanup(store.Close)
	m, err := NewManager(store, "test-secret", Options{TTL: time.Hour})
	require.NoError(t, err)
	return m, store
}

// requestWithCookies builds a request carrying every cookie set on rec.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(NewMemoryStore(0), "", Options{})
	assert.Error(t, err)
}

func TestLoad_NoCookie(t *testing.T) {
	m, _ := newTestManager(t)

	id, sess, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.False(t, sess.Authenticated)
}

func TestStartThenLoad(t *testing.T) {
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	err := m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), &Session{Authenticated: true, Username: "admin"})
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id, sess, err := m.Load(requestWithCookies(rec))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "admin", sess.Username)
}

func TestLoad_TamperedCookie(t *testing.T) {
	m, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "forged"})

	id, sess, err := m.Load(req)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.False(t, sess.Authenticated)
}

func TestLoad_CookieFromOtherSecret(t *testing.T) {
	m, _ := newTestManager(t)
	other, err := NewManager(NewMemoryStore(0), "other-secret", Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, other.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), &Session{Authenticated: true}))

	_, sess, err := m.Load(requestWithCookies(rec))
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
}

func TestStart_RegeneratesID(t *testing.T) {
	m, store := newTestManager(t)

	first := httptest.NewRecorder()
	require.NoError(t, m.Start(first, httptest.NewRequest(http.MethodPost, "/", nil), &Session{}))
	firstID, _, err := m.Load(requestWithCookies(first))
	require.NoError(t, err)

	second := httptest.NewRecorder()
	require.NoError(t, m.Start(second, requestWithCookies(first), &Session{Authenticated: true}))
	secondID, _, err := m.Load(requestWithCookies(second))
	require.NoError(t, err)

	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, 1, store.Len(), "previous session must be destroyed")
}

func TestDestroy(t *testing.T) {
	m, store := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), &Session{Authenticated: true}))
	req := requestWithCookies(rec)

	out := httptest.NewRecorder()
	require.NoError(t, m.Destroy(out, req))
	assert.Zero(t, store.Len())

	cookies := out.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)

	_, sess, err := m.Load(req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(0)
	t.Cleanup(store.Close)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", &Session{Authenticated: true, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Set(ctx, "b", &Session{Authenticated: true, ExpiresAt: now.Add(-time.Minute)}))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Authenticated)

	got, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, store.Len())

	now = now.Add(2 * time.Minute)
	store.sweep()
	assert.Zero(t, store.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(0)
	t.Cleanup(store.Close)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", &Session{Username: "admin"}))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	got.Username = "changed"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "admin", again.Username)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	store.Close()
	store.Close()
}
