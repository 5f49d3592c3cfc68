package redis

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var errRedisDown = errors.New("connection refused")

// fakeRedis emulates the handful of commands the adapters rely on.
type fakeRedis struct {
	mu      sync.Mutex
	strings map[string]string
	zsets   map[string][]redis.Z
	ttl     map[string]time.Duration
	err     error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		zsets:   map[string][]redis.Z{},
		ttl:     map[string]time.Duration{},
	}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return f.err }

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.strings[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) IncrExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n, _ := strconv.ParseInt(f.strings[key], 10, 64)
	n++
	f.strings[key] = strconv.FormatInt(n, 10)
	f.ttl[key] = expiration
	return n, nil
}

func (f *fakeRedis) SlideWindow(ctx context.Context, key, member string, score, minScore float64, keep int64, expiration time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	set := append(f.zsets[key], redis.Z{Score: score, Member: member})
	sort.SliceStable(set, func(i, j int) bool { return set[i].Score < set[j].Score })
	kept := set[:0]
	for _, z := range set {
		if z.Score >= minScore {
			kept = append(kept, z)
		}
	}
	if keep > 0 && int64(len(kept)) > keep {
		kept = kept[int64(len(kept))-keep:]
	}
	f.zsets[key] = kept
	f.ttl[key] = expiration
	return int64(len(kept)), nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.strings[key]; ok {
		return false, nil
	}
	f.strings[key] = value.(string)
	f.ttl[key] = expiration
	return true, nil
}

func (f *fakeRedis) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.strings[key] != value {
		return false, nil
	}
	delete(f.strings, key)
	return true, nil
}

func (f *fakeRedis) CompareAndExpire(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.strings[key] != value {
		return false, nil
	}
	f.ttl[key] = expiration
	return true, nil
}

func (f *fakeRedis) Close() error { return nil }
