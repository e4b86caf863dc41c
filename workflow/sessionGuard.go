package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/bsm/redislock"
)

const sessionGuardTTL = 30 * time.Second

// localSessionGuard is the in-process fast path: at most one StartReceiving
// per ASN gets past it without a network round-trip. Redis extends the same
// guarantee across instances; the DB uniqueness check is the final arbiter.
type localSessionGuard struct {
	mu     sync.Mutex
	active map[string]bool
}

var sessionGuard = &localSessionGuard{active: map[string]bool{}}

func (g *localSessionGuard) TryAcquire(asnId string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[asnId] {
		return false
	}
	g.active[asnId] = true
	return true
}

func (g *localSessionGuard) Release(asnId string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, asnId)
}

// acquireSessionGuard takes both the local and the cross-instance guard for
// an ASN. The returned release function is safe to call exactly once.
func acquireSessionGuard(ctx context.Context, asnId string) (func(), error) {
	if !sessionGuard.TryAcquire(asnId) {
		return nil, utils.NewConflictError("a receiving session is already active for this asn")
	}

	locker := config.GetRedisLock()
	if locker == nil {
		return func() { sessionGuard.Release(asnId) }, nil
	}

	lock, err := locker.Obtain(ctx, "session:"+asnId, sessionGuardTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		sessionGuard.Release(asnId)
		return nil, utils.NewConflictError("a receiving session is already active for this asn")
	}
	if err != nil {
		sessionGuard.Release(asnId)
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
		sessionGuard.Release(asnId)
	}, nil
}
