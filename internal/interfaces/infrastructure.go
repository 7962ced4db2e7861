package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type EventPublisher interface {
	PublishStateChange(ctx context.Context, event models.LoanStateEvent) error
}

// Locker guards a key for at most ttl. Acquire reports false without error
// when somebody else holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
