// Package session keeps server-side login state keyed by an identifier that
// travels in a signed cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// Session is the state held for one browser.
type Session struct {
	Authenticated bool
	Username      string
	ExpiresAt     time.Time
}

// Store persists sessions by id. Get returns (nil, nil) when id is unknown or
// expired.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, id string, s *Session) error
	Destroy(ctx context.Context, id string) error
}

const DefaultCookieName = "handmades.sid"

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager binds a Store to HTTP requests through a signed cookie carrying
// the session id.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	name   string
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, secret string, opts Options) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(opts.TTL / time.Second))

	return &Manager{
		store:  store,
		codec:  codec,
		name:   opts.CookieName,
		ttl:    opts.TTL,
		secure: opts.Secure,
	}, nil
}

// Load returns the session referenced by the request cookie. A missing,
// tampered or expired cookie yields an empty unauthenticated session and
// id "".
func (m *Manager) Load(r *http.Request) (string, *Session, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return "", &Session{}, nil
	}

	var id string
	if err := m.codec.Decode(m.name, cookie.Value, &id); err != nil {
		return "", &Session{}, nil
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return "", &Session{}, nil
	}
	return id, sess, nil
}

// Start discards any session carried by the request and stores sess under a
// fresh id, writing the cookie to w.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if oldID, _, err := m.Load(r); err == nil && oldID != "" {
		if err := m.store.Destroy(r.Context(), oldID); err != nil {
			return fmt.Errorf("failed to destroy previous session: %w", err)
		}
	}

	id := uuid.New().String()
	sess.ExpiresAt = time.Now().Add(m.ttl)
	if err := m.store.Set(r.Context(), id, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	encoded, err := m.codec.Encode(m.name, id)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy removes the request's session from the store and expires the
// cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	id, _, err := m.Load(r)
	if err != nil {
		return err
	}
	if id != "" {
		if err := m.store.Destroy(r.Context(), id); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
