package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitdao/governor/internal/services/registry"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/ethereum/go-ethereum/common"
)

// Effect is a staged, fully validated call. Commit applies it and returns the
// call's return data. Abort releases anything the target reserved while
// preparing. A prepared effect must not be able to fail on commit.
type Effect interface {
	Commit() []byte
	Abort()
}

// Target is a callable resource registered with the executor. Prepare
// validates the action against current state and reserves its effects without
// applying them.
type Target interface {
	Prepare(sender common.Address, action dao.Action) (Effect, error)
}

// Service performs permission-gated atomic batched execution. It owns the
// permission registry used for the execute check.
type Service struct {
	registry *registry.Registry

	mu      sync.RWMutex
	targets map[common.Address]Target
}

func New(reg *registry.Registry) *Service {
	return &Service{
		registry: reg,
		targets:  map[common.Address]Target{},
	}
}

func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Register makes target callable at addr.
func (s *Service) Register(addr common.Address, target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.targets[addr] = target
}

func (s *Service) target(addr common.Address) (Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.targets[addr]
	return t, ok
}

// Execute runs every action in order as a single all-or-nothing unit and
// returns per-action return data. The caller must hold the execute permission
// on resource at call time; the check is never cached from an earlier point.
//
// Execution is staged: every action is prepared (validated and reserved)
// before any is committed, so a failing action leaves no partial effects and
// a called-into target never observes in-flight batch state.
func (s *Service) Execute(ctx context.Context, caller, resource common.Address, actions []dao.Action) ([][]byte, error) {
	if !s.registry.IsGranted(resource, caller, dao.ExecutePermissionID) {
		return nil, dao.ErrUnauthorized
	}

	effects := make([]Effect, 0, len(actions))

	abort := func() {
		for _, e := range effects {
			e.Abort()
		}
	}

	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			abort()
			return nil, &dao.ExecutionError{Index: i, Err: err}
		}

		t, ok := s.target(action.Target)
		if !ok {
			abort()
			return nil, &dao.ExecutionError{Index: i, Err: fmt.Errorf("no target registered at %s", action.Target)}
		}

		effect, err := t.Prepare(resource, action)
		if err != nil {
			abort()
			return nil, &dao.ExecutionError{Index: i, Err: err}
		}

		effects = append(effects, effect)
	}

	returns := make([][]byte, len(effects))
	for i, e := range effects {
		returns[i] = e.Commit()
	}

	return returns, nil
}
