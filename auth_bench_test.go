package authcore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veilmail/authcore/principal"
)

func newBenchmarkEngine(b *testing.B) (*Engine, func()) {
	b.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(client).
		WithPrincipalStore(principal.NewStatic("p1")).
		Build()
	if err != nil {
		mr.Close()
		b.Fatalf("build engine: %v", err)
	}

	return engine, func() {
		_ = client.Close()
		mr.Close()
	}
}

func BenchmarkAuthenticate(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Issue(context.Background(), "p1", "p1@example.com")
	if err != nil {
		b.Fatalf("issue: %v", err)
	}
	header := "Bearer " + pair.AccessToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, rej := engine.Authenticate(context.Background(), header); rej != nil {
			b.Fatalf("authenticate: %s", rej.Code)
		}
	}
}

func BenchmarkRotateRefresh(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Issue(context.Background(), "p1", "p1@example.com")
	if err != nil {
		b.Fatalf("issue: %v", err)
	}
	refresh := pair.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.RotateRefresh(context.Background(), refresh)
		if err != nil {
			b.Fatalf("rotate: %v", err)
		}
		refresh = next.RefreshToken
	}
}
