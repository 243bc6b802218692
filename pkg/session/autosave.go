package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftboard/pkg/document"
	"github.com/matzehuels/driftboard/pkg/engine"
	"github.com/matzehuels/driftboard/pkg/kv"
)

// DefaultInterval is the autosave period used when Interval is zero.
const DefaultInterval = 30 * time.Second

// Autosaver periodically writes an engine's document to a store.
type Autosaver struct {
	Engine   *engine.Locked
	Store    kv.Store
	Session  *Session
	Interval time.Duration
	Logger   *log.Logger

	last string // hash of the last saved document
}

func (a *Autosaver) logger() *log.Logger {
	if a.Logger == nil {
		a.Logger = log.New(io.Discard)
	}
	return a.Logger
}

// SaveNow writes the current document unless it is identical to the last
// one saved. Reports whether a write happened.
func (a *Autosaver) SaveNow(ctx context.Context) (bool, error) {
	var (
		data  []byte
		title string
		err   error
	)
	a.Engine.Do(func(e *engine.Engine) {
		data, err = document.Marshal(e.ExportAll())
		title = e.Title()
	})
	if err != nil {
		return false, fmt.Errorf("export diagram: %w", err)
	}

	h := kv.Hash(data)
	if h == a.last {
		return false, nil
	}
	a.Session.touch(time.Now().UTC())
	if title != "" {
		a.Session.Title = title
	}
	if err := a.Store.Set(ctx, a.Session.Key(), data, a.Session.remaining()); err != nil {
		return false, fmt.Errorf("save diagram %s: %w", a.Session.ID, err)
	}
	if err := Save(ctx, a.Store, a.Session); err != nil {
		return false, err
	}
	a.last = h
	a.logger().Debug("autosaved", "session", a.Session.ID, "bytes", len(data))
	return true, nil
}

// Run saves every Interval until ctx is cancelled, then saves one last
// time. Failed saves are logged and retried on the next tick.
func (a *Autosaver) Run(ctx context.Context) error {
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// the caller's context is gone; give the final save its own
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			_, err := a.SaveNow(final)
			cancel()
			return err
		case <-ticker.C:
			if _, err := a.SaveNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger().Warn("autosave failed", "session", a.Session.ID, "err", err)
			}
		}
	}
}

// Restore loads the saved document into the engine, replacing its diagram
// and clearing its history. Reports false when nothing was saved yet.
func (a *Autosaver) Restore(ctx context.Context) (bool, error) {
	var (
		ok  bool
		err error
	)
	a.Engine.Do(func(e *engine.Engine) {
		ok, err = Restore(ctx, a.Store, a.Session, e)
		if ok && err == nil {
			if data, merr := document.Marshal(e.ExportAll()); merr == nil {
				a.last = kv.Hash(data)
			}
		}
	})
	return ok, err
}

// Restore loads the session's saved document into e, replacing its
// diagram and clearing its history. Reports false when nothing was saved.
func Restore(ctx context.Context, store kv.Store, s *Session, e *engine.Engine) (bool, error) {
	data, ok, err := store.Get(ctx, s.Key())
	if err != nil {
		return false, fmt.Errorf("load diagram %s: %w", s.ID, err)
	}
	if !ok {
		return false, nil
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		return false, fmt.Errorf("saved diagram %s: %w", s.ID, err)
	}
	if _, err := e.ImportReplace(doc); err != nil {
		return false, err
	}
	e.ClearHistory()
	return true, nil
}

// SaveDiagram writes e's document and the session metadata once. It is the
// single-shot form of [Autosaver.SaveNow] for short-lived processes.
func SaveDiagram(ctx context.Context, store kv.Store, s *Session, e *engine.Engine) error {
	a := &Autosaver{Engine: engine.NewLocked(e), Store: store, Session: s}
	_, err := a.SaveNow(ctx)
	return err
}
