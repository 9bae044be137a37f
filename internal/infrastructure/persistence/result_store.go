package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"dealhunt/internal/domain/entity"
	"dealhunt/internal/infrastructure/blob"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/logx"
	"dealhunt/pkg/lox"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ResultStore is the durable, ordered collection of discovered opportunities.
// It is the sole writer of its snapshot object: every mutation rewrites the
// whole sequence, never a delta. Mutations must be serialized by the caller
// (one run at a time per store); the internal mutex only keeps Snapshot safe
// to call from the observer side.
type ResultStore struct {
	store blob.Store
	name  string

	onSaveFailure func()

	mu     sync.Mutex
	memory []entity.Opportunity
}

func NewResultStore(store blob.Store, name string) *ResultStore {
	return &ResultStore{
		store:         store,
		name:          name,
		onSaveFailure: func() {},
	}
}

// WithSaveFailureHook registers a callback fired on every failed snapshot
// write, for metrics.
func (s *ResultStore) WithSaveFailureHook(hook func()) *ResultStore {
	s.onSaveFailure = hook
	return s
}

// Load reads the snapshot from the configured backend into memory. A missing
// object or a malformed payload degrades to an empty sequence; only the
// backend being unreachable is an error.
func (s *ResultStore) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx, s.name)
	if errors.Is(err, blob.ErrNotExist) {
		s.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store.Load: %w", err)
	}

	var schemas []opportunitySchema
	if err := json.Unmarshal(data, &schemas); err != nil {
		logger(ctx).Error("malformed memory snapshot, starting empty", logx.Error(err))
		s.replace(nil)
		return nil
	}

	s.replace(lox.Map(schemas, opportunitySchema.toDomain))

	return nil
}

// Append adds the opportunity to the in-memory sequence and rewrites the full
// snapshot. A failed write keeps the in-memory append and is logged only.
func (s *ResultStore) Append(ctx context.Context, o entity.Opportunity) {
	s.mu.Lock()
	s.memory = append(s.memory, o)
	snapshot := s.copyLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// Reset truncates the sequence to its first keepFirstN elements, in their
// current order, and persists the result.
func (s *ResultStore) Reset(ctx context.Context, keepFirstN int) {
	s.mu.Lock()
	if keepFirstN < 0 {
		keepFirstN = 0
	}
	if keepFirstN < len(s.memory) {
		s.memory = s.memory[:keepFirstN]
	}
	snapshot := s.copyLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// Snapshot returns a copy of the current sequence.
func (s *ResultStore) Snapshot() []entity.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copyLocked()
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.memory)
}

func (s *ResultStore) replace(memory []entity.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memory = memory
}

func (s *ResultStore) copyLocked() []entity.Opportunity {
	out := make([]entity.Opportunity, len(s.memory))
	copy(out, s.memory)

	return out
}

func (s *ResultStore) persist(ctx context.Context, snapshot []entity.Opportunity) {
	data, err := json.MarshalIndent(lox.Map(snapshot, fromOpportunity), "", "  ")
	if err != nil {
		s.onSaveFailure()
		logger(ctx).Error("marshal memory snapshot", logx.Error(err))

		return
	}

	if err := s.store.Save(ctx, s.name, data); err != nil {
		s.onSaveFailure()
		logger(ctx).Error("persist memory snapshot", logx.Error(err))
	}
}
