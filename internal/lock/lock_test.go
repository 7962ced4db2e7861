package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/interfaces"
)

func lockers(t *testing.T) map[string]interfaces.Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]interfaces.Locker{
		"redis": NewRedisLocker(client),
		"local": NewLocalLocker(),
	}
}

func TestLockerExcludesSecondHolder(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			release, ok, err := l.Acquire(ctx, "r1", time.Minute)
			if err != nil || !ok {
				t.Fatalf("first acquire: ok=%v err=%v", ok, err)
			}

			if _, ok, err := l.Acquire(ctx, "r1", time.Minute); err != nil || ok {
				t.Fatalf("second acquire should fail: ok=%v err=%v", ok, err)
			}
			if rel, ok, _ := l.Acquire(ctx, "r2", time.Minute); !ok {
				t.Fatalf("other keys must stay free")
			} else {
				rel()
			}

			release()

			release, ok, err = l.Acquire(ctx, "r1", time.Minute)
			if err != nil || !ok {
				t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
			}
			release()
		})
	}
}

func TestLocalLockerExpires(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	stale, ok, _ := l.Acquire(ctx, "r1", time.Millisecond)
	if !ok {
		t.Fatalf("acquire failed")
	}
	time.Sleep(5 * time.Millisecond)

	release, ok, _ := l.Acquire(ctx, "r1", time.Minute)
	if !ok {
		t.Fatalf("expired lock should be reacquirable")
	}
	// releasing the stale holder must not free the new one
	stale()
	if _, ok, _ := l.Acquire(ctx, "r1", time.Minute); ok {
		t.Fatalf("stale release freed the current holder")
	}
	release()
}
