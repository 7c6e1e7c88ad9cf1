package jobstate

import (
	"context"

	"github.com/jonboulle/clockwork"
)

// Store persists transitions as conditional writes: a transition applies only
// when the stored status is one of Sources(t.To). applied=false with a nil
// error means the guard did not match (terminal or unknown scan).
type Store interface {
	TransitionScan(ctx context.Context, scanID string, t Transition) (applied bool, err error)
}

// Machine stamps transitions with its clock and hands them to the store.
type Machine struct {
	store Store
	clock clockwork.Clock
}

func NewMachine(store Store, clock clockwork.Clock) *Machine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Machine{store: store, clock: clock}
}

func (m *Machine) Start(ctx context.Context, scanID string) (bool, error) {
	return m.store.TransitionScan(ctx, scanID, Start(m.clock.Now().UTC()))
}

func (m *Machine) Complete(ctx context.Context, scanID string, score int, reportRef string) (bool, error) {
	return m.store.TransitionScan(ctx, scanID, Complete(m.clock.Now().UTC(), score, reportRef))
}

func (m *Machine) Fail(ctx context.Context, scanID string) (bool, error) {
	return m.store.TransitionScan(ctx, scanID, Fail(m.clock.Now().UTC()))
}
