//go:build integration

package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Run with: go test -tags integration ./pkg/kv
// DRIFTBOARD_TEST_REDIS (host:port) and DRIFTBOARD_TEST_MONGO (URI) select
// the servers; a backend whose variable is unset is skipped.

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	out := map[string]Store{}
	prefix := "test-" + uuid.NewString() + ":"

	if addr := os.Getenv("DRIFTBOARD_TEST_REDIS"); addr != "" {
		s, err := NewRedisStore(ctx, RedisConfig{Addr: addr, Prefix: prefix})
		if err != nil {
			t.Fatalf("redis: %v", err)
		}
		out[BackendRedis] = s
	}
	if uri := os.Getenv("DRIFTBOARD_TEST_MONGO"); uri != "" {
		s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Collection: "kv_" + uuid.NewString()})
		if err != nil {
			t.Fatalf("mongo: %v", err)
		}
		t.Cleanup(func() { _ = s.coll.Drop(context.Background()) })
		out[BackendMongo] = s
	}
	if len(out) == 0 {
		t.Skip("no backend configured")
	}
	for _, s := range out {
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

func TestBackendContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, ok, err := s.Get(ctx, "diagram:missing"); ok || err != nil {
				t.Fatalf("Get missing = %v, %v", ok, err)
			}
			for _, k := range []string{"diagram:b", "diagram:a", "other:x"} {
				if err := s.Set(ctx, k, []byte(k), time.Hour); err != nil {
					t.Fatal(err)
				}
			}
			data, ok, err := s.Get(ctx, "diagram:a")
			if err != nil || !ok || string(data) != "diagram:a" {
				t.Fatalf("Get = %q, %v, %v", data, ok, err)
			}
			keys, err := s.List(ctx, "diagram:")
			if err != nil {
				t.Fatal(err)
			}
			if len(keys) != 2 || keys[0] != "diagram:a" || keys[1] != "diagram:b" {
				t.Errorf("List = %v", keys)
			}
			for _, k := range []string{"diagram:b", "diagram:a", "other:x"} {
				if err := s.Delete(ctx, k); err != nil {
					t.Fatal(err)
				}
			}
			if _, ok, _ := s.Get(ctx, "diagram:a"); ok {
				t.Error("deleted key still present")
			}
		})
	}
}
