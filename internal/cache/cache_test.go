package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestNilCachePassesThrough(t *testing.T) {
	c := New(nil, time.Minute, nil)
	if c != nil {
		t.Fatalf("expected nil cache without a client")
	}

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}
	for i := 0; i < 2; i++ {
		got, err := GetOrLoadJSON(context.Background(), c, Key("venues"), load)
		if err != nil || len(got) != 2 {
			t.Fatalf("unexpected result %v, %v", got, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected every read to load, got %d calls", calls)
	}

	boom := errors.New("boom")
	if _, err := GetOrLoadJSON(context.Background(), c, Key("x"), func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	c.Invalidate(context.Background())
}

func TestKey(t *testing.T) {
	if got := Key("category", "food"); got != "locals:catalog:category:food" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestReadThrough(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"Deli", "Bistro"}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := GetOrLoadJSON(ctx, c, Key("venues"), load)
		if err != nil || len(got) != 2 || got[1] != "Bistro" {
			t.Fatalf("unexpected result %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}
	if !mr.Exists(Key("venues") + "@0") {
		t.Fatalf("expected entry stored, keys %v", mr.Keys())
	}
	if ttl := mr.TTL(Key("venues") + "@0"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	boom := errors.New("boom")
	if _, err := GetOrLoadJSON(ctx, c, Key("broken"), func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if mr.Exists(Key("broken") + "@0") {
		t.Fatalf("failed loads must not be cached")
	}
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	c, _ := newRedisCache(t)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"Deli"}, nil
	}

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := GetOrLoadJSON(context.Background(), c, Key("venues"), load)
			if err == nil && len(got) != 1 {
				err = errors.New("unexpected result")
			}
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one shared load, got %d", n)
	}
}

func TestSharedLoadSurvivesCallerCancel(t *testing.T) {
	c, _ := newRedisCache(t)

	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) ([]string, error) {
		close(started)
		select {
		case <-release:
			return []string{"Deli"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	go func() {
		_, _ = GetOrLoadJSON(firstCtx, c, Key("venues"), load)
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		got, err := GetOrLoadJSON(context.Background(), c, Key("venues"), load)
		if err == nil && len(got) != 1 {
			err = errors.New("unexpected result")
		}
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiting caller failed with the first caller: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiting caller never returned")
	}
}

func TestInvalidateDiscardsInFlightLoad(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = GetOrLoadJSON(ctx, c, Key("venues"), func(context.Context) ([]string, error) {
			close(started)
			<-release
			return []string{"Deli"}, nil
		})
	}()
	<-started

	// a venue is created while the old list is still loading
	c.Invalidate(ctx)
	close(release)
	<-done

	got, err := GetOrLoadJSON(ctx, c, Key("venues"), func(context.Context) ([]string, error) {
		return []string{"Deli", "Bistro"}, nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stale list survived invalidation: %v", got)
	}
}

func TestInvalidateSweepsEntries(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	if _, err := GetOrLoadJSON(ctx, c, Key("categories"), load); err != nil {
		t.Fatalf("read: %v", err)
	}
	c.Invalidate(ctx)

	for _, k := range mr.Keys() {
		if k != generationKey {
			t.Fatalf("expected entries swept, found %q", k)
		}
	}
	got, err := GetOrLoadJSON(ctx, c, Key("categories"), load)
	if err != nil || got != 2 {
		t.Fatalf("expected a fresh load after invalidation, got %d, %v", got, err)
	}
}

func TestRedisDownFallsBackToLoader(t *testing.T) {
	c, mr := newRedisCache(t)
	mr.Close()

	got, err := GetOrLoadJSON(context.Background(), c, Key("venues"), func(context.Context) ([]string, error) {
		return []string{"Deli"}, nil
	})
	if err != nil || len(got) != 1 {
		t.Fatalf("expected loader result without redis, got %v, %v", got, err)
	}
	c.Invalidate(context.Background())
}
