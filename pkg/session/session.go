// Package session names saved diagrams and keeps them saved.
//
// A [Session] is the metadata of one diagram: a random ID, a title and an
// expiry. Sessions and their diagram documents live in a [kv.Store]:
//
//	session:<id>   session metadata (JSON)
//	diagram:<id>   the exported diagram document (JSON)
//
// An [Autosaver] writes the engine's document to the store on a fixed
// interval, skipping writes when nothing changed since the last save.
//
// # Usage
//
//	sess := session.New("roadmap", session.DefaultTTL)
//	saver := &session.Autosaver{
//	    Engine:   engine.NewLocked(e),
//	    Store:    store,
//	    Session:  sess,
//	    Interval: 30 * time.Second,
//	}
//	go saver.Run(ctx) // saves once more when ctx is cancelled
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/kv"
)

// Key prefixes in the store.
const (
	SessionPrefix = "session:"
	DiagramPrefix = "diagram:"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Session stores diagram metadata.
type Session struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
	TTL       time.Duration `json:"ttl,omitempty"` // 0 keeps the session forever
}

// New creates a session with a random ID. A ttl <= 0 never expires.
func New(title string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		TTL:       max(ttl, 0),
	}
	s.touch(now)
	return s
}

// Key returns the store key of the session's diagram document.
func (s *Session) Key() string { return DiagramPrefix + s.ID }

// MetaKey returns the store key of the session metadata.
func (s *Session) MetaKey() string { return SessionPrefix + s.ID }

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// touch marks the session as updated at now and extends its expiry.
func (s *Session) touch(now time.Time) {
	s.UpdatedAt = now
	if s.TTL > 0 {
		s.ExpiresAt = now.Add(s.TTL)
	}
}

// remaining is the store TTL for the session's entries.
func (s *Session) remaining() time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return max(time.Until(s.ExpiresAt), time.Second)
}

// Save writes the session metadata.
func Save(ctx context.Context, store kv.Store, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := store.Set(ctx, s.MetaKey(), data, s.remaining()); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads session metadata. A missing or expired session is an error
// with code SESSION_NOT_FOUND.
func Load(ctx context.Context, store kv.Store, id string) (*Session, error) {
	if err := errs.ValidateSessionID(id); err != nil {
		return nil, err
	}
	data, ok, err := store.Get(ctx, SessionPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !ok {
		return nil, errs.New(errs.ErrCodeSessionNotFound, "session %s not found", id)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "decode session %s", id)
	}
	if s.IsExpired() {
		return nil, errs.New(errs.ErrCodeSessionNotFound, "session %s expired", id)
	}
	return &s, nil
}

// Resolve finds a session by full ID or by a unique ID prefix, as typed on
// the command line.
func Resolve(ctx context.Context, store kv.Store, ref string) (*Session, error) {
	if errs.ValidateSessionID(ref) == nil {
		return Load(ctx, store, ref)
	}
	keys, err := store.List(ctx, SessionPrefix+ref)
	if err != nil {
		return nil, fmt.Errorf("resolve session %q: %w", ref, err)
	}
	switch len(keys) {
	case 0:
		return nil, errs.New(errs.ErrCodeSessionNotFound, "no session matches %q", ref)
	case 1:
		return Load(ctx, store, strings.TrimPrefix(keys[0], SessionPrefix))
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "%q matches %d sessions", ref, len(keys))
}

// List returns every live session, most recently updated first.
func List(ctx context.Context, store kv.Store) ([]*Session, error) {
	keys, err := store.List(ctx, SessionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]*Session, 0, len(keys))
	for _, k := range keys {
		s, err := Load(ctx, store, strings.TrimPrefix(k, SessionPrefix))
		if errs.Is(err, errs.ErrCodeSessionNotFound) || errs.Is(err, errs.ErrCodeInvalidInput) {
			continue // expired between List and Get, or a foreign key
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Session) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

// Delete removes a session and its diagram.
func Delete(ctx context.Context, store kv.Store, s *Session) error {
	if err := store.Delete(ctx, s.Key()); err != nil {
		return fmt.Errorf("delete diagram %s: %w", s.ID, err)
	}
	if err := store.Delete(ctx, s.MetaKey()); err != nil {
		return fmt.Errorf("delete session %s: %w", s.ID, err)
	}
	return nil
}
