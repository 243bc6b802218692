package kv

import (
	"context"
	"fmt"
	"time"

	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/observability"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string // BackendFile
	Redis   RedisConfig
	Mongo   MongoConfig
}

// Open creates the configured backend, instrumented with the registered
// observability store hooks.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		s, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.Mongo)
	case BackendNone:
		s = NewNullStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	name := cfg.Backend
	if name == "" {
		name = BackendFile
	}
	return Instrument(s, name), nil
}

// instrumented reports loads and saves to the observability hooks.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so every Get and Set is reported to
// observability.Store() under the given backend name. Keys are checked
// with errors.ValidateKey before they reach the backend.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := errs.ValidateKey(key); err != nil {
		return nil, false, err
	}
	data, ok, err := s.Store.Get(ctx, key)
	if err == nil {
		observability.Store().OnLoad(ctx, s.backend, ok)
	}
	return data, ok, err
}

func (s *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	err := s.Store.Set(ctx, key, data, ttl)
	observability.Store().OnSave(ctx, s.backend, len(data), err)
	return err
}

// Unwrap returns the backend behind the instrumentation.
func (s *instrumented) Unwrap() Store { return s.Store }
