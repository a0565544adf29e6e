package lock

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	owner   uint64
	expires time.Time
}

// Local implements Locker inside one process.
type Local struct {
	mu     sync.Mutex
	leases map[string]lease
	seq    uint64
	opts   Options
	now    func() time.Time
}

func NewLocal(opts Options) *Local {
	return &Local{
		leases: make(map[string]lease),
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

func (l *Local) tryAcquire(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, held := l.leases[key]; held && now.Before(cur.expires) {
		return 0, false
	}

	l.seq++
	l.leases[key] = lease{owner: l.seq, expires: now.Add(ttl)}
	return l.seq, true
}

func (l *Local) Lock(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	deadline := time.After(l.opts.Wait)

	for {
		if owner, ok := l.tryAcquire(key, ttl); ok {
			return func(context.Context) error {
				l.mu.Lock()
				defer l.mu.Unlock()
				if cur, held := l.leases[key]; held && cur.owner == owner {
					delete(l.leases, key)
				}
				return nil
			}, nil
		}

		if err := waitFor(ctx, deadline, l.opts.Poll); err != nil {
			return nil, err
		}
	}
}
