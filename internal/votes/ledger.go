package votes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ledger records first votes per (voter, issue) pair. The registry applies
// increments blindly; idempotency lives here, on the caller side.
type Ledger interface {
	// FirstVote returns true exactly once per (voter, issue) pair.
	FirstVote(ctx context.Context, voterID string, issueID int64) bool
}

// MemoryLedger keeps the dedup set in process memory.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewMemoryLedger builds an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]bool)}
}

func (l *MemoryLedger) FirstVote(_ context.Context, voterID string, issueID int64) bool {
	key := voteKey(voterID, issueID)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[key] {
		return false
	}
	l.seen[key] = true
	return true
}

// RedisLedger backs the dedup set with Redis so votes stay deduplicated
// across server restarts and replicas.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLedger connects a ledger to Redis. An unreachable Redis is logged
// but not fatal; lookups then degrade to allowing the vote.
func NewRedisLedger(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}
	return &RedisLedger{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLedger) FirstVote(ctx context.Context, voterID string, issueID int64) bool {
	ok, err := l.client.SetNX(ctx, "vote:"+voteKey(voterID, issueID), 1, l.ttl).Result()
	if err != nil {
		// availability over strictness: an unreachable ledger lets the vote through
		l.logger.Warn("vote ledger lookup failed", zap.Error(err))
		return true
	}
	return ok
}

// Ping reports Redis reachability for readiness probes.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func voteKey(voterID string, issueID int64) string {
	return fmt.Sprintf("%s:%d", voterID, issueID)
}
