package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Dr-Min/memotheme/pkg/types"
)

// ErrStoreUnavailable is returned when the circuit breaker is open and the
// learning store is being skipped to fail fast.
var ErrStoreUnavailable = errors.New("learning store unavailable")

// BreakerConfig holds circuit breaker tuning for a wrapped learning store.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 3.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing a probe.
	// Default: 30 seconds.
	Timeout time.Duration
}

// BreakerLearningStore wraps a LearningStore with a circuit breaker so that a
// persistently unavailable backend (typically the Postgres backend) fails
// fast instead of blocking every analysis call. The engine itself never
// retries; the host decides what to do with the error.
type BreakerLearningStore struct {
	inner   LearningStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerLearningStore wraps store with a circuit breaker using cfg.
// Zero-valued cfg fields fall back to the defaults documented on BreakerConfig.
func NewBreakerLearningStore(store LearningStore, cfg BreakerConfig) *BreakerLearningStore {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "learning-store",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}

	return &BreakerLearningStore{
		inner:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// execute runs fn through the breaker, translating open-circuit errors into
// ErrStoreUnavailable.
func (b *BreakerLearningStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrStoreUnavailable
	}
	return result, err
}

// UserPatterns implements LearningStore.
func (b *BreakerLearningStore) UserPatterns(ctx context.Context) ([]types.WordThemePattern, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.UserPatterns(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.WordThemePattern), nil
}

// FrequentTerms implements LearningStore.
func (b *BreakerLearningStore) FrequentTerms(ctx context.Context) ([]types.FrequentTerm, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.FrequentTerms(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.FrequentTerm), nil
}

// UpdateWordThemePattern implements LearningStore.
func (b *BreakerLearningStore) UpdateWordThemePattern(ctx context.Context, word, themeID string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.UpdateWordThemePattern(ctx, word, themeID)
	})
	return err
}

// UpdateTermFrequency implements LearningStore.
func (b *BreakerLearningStore) UpdateTermFrequency(ctx context.Context, terms []string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.UpdateTermFrequency(ctx, terms)
	})
	return err
}

// MostRelevantThemeForWord implements LearningStore.
func (b *BreakerLearningStore) MostRelevantThemeForWord(ctx context.Context, word string) (string, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.MostRelevantThemeForWord(ctx, word)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// LearnFromUserAction implements LearningStore.
func (b *BreakerLearningStore) LearnFromUserAction(ctx context.Context, terms []string, oldThemes, newThemes []string) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.LearnFromUserAction(ctx, terms, oldThemes, newThemes)
	})
	return err
}

// Reset implements LearningStore.
func (b *BreakerLearningStore) Reset(ctx context.Context) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.inner.Reset(ctx)
	})
	return err
}
