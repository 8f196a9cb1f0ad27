package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/model"
)

// fakeStrategy assigns sequential identifiers and records what the worker did with it.
type fakeStrategy struct {
	state      *State
	openErr    error
	closeErr   error
	failInsert map[int]error // by insert call, starting at 0
	opens      int
	closes     int
	inserts    int
	nextID     int
	openStates []State
	contacts   []int
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Open(ctx context.Context) (engine.Session, error) {
	if f.state != nil {
		f.openStates = append(f.openStates, *f.state)
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opens++
	return &fakeSession{f}, nil
}

type fakeSession struct {
	f *fakeStrategy
}

func (s *fakeSession) Insert(ctx context.Context, company model.Company) (model.Company, error) {
	f := s.f
	call := f.inserts
	f.inserts++
	f.contacts = append(f.contacts, len(company.Contacts))
	if err := f.failInsert[call]; err != nil {
		return model.Company{}, err
	}
	out := company.Clone()
	f.nextID++
	out.ID = f.nextID
	for i := range out.Contacts {
		f.nextID++
		out.Contacts[i].ID = f.nextID
		out.Contacts[i].CompanyID = out.ID
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.f.closes++
	return s.f.closeErr
}

type verifierFunc func(ctx context.Context, company model.Company) error

func (v verifierFunc) Verify(ctx context.Context, company model.Company) error { return v(ctx, company) }

type transition struct{ from, to State }

func TestLifecycleTransitions(t *testing.T) {
	var got []transition
	w := NewWorker(0, &fakeStrategy{}, Options{
		Iterations:         1,
		ContactsPerCompany: 1,
		OnTransition:       func(from, to State) { got = append(got, transition{from, to}) },
	})

	res := w.Run(context.Background())

	assert.Equal(t, []transition{
		{Idle, SetUp},
		{SetUp, Executing},
		{Executing, Measured},
		{Measured, CleaningUp},
		{CleaningUp, Idle},
	}, got)
	assert.Equal(t, 1, res.CompleteCount)
	assert.Equal(t, Idle, w.state)
}

func TestWarmupIsNotRecorded(t *testing.T) {
	f := &fakeStrategy{failInsert: map[int]error{3: errors.New("duplicate key")}}
	w := NewWorker(1, f, Options{Iterations: 4, Warmup: 2, ContactsPerCompany: 3, Seed: 9})

	res := w.Run(context.Background())

	assert.Equal(t, "fake", res.Strategy)
	assert.Equal(t, 1, res.Run)
	assert.Equal(t, 3, res.CompleteCount)
	assert.Equal(t, 1, res.AbortCount)
	assert.Len(t, res.Rts, 3)
	assert.Equal(t, 3*4, res.Rows)
	assert.Positive(t, res.RealDuration)

	assert.Equal(t, 6, f.inserts)
	assert.Equal(t, 6, f.opens)
	assert.Equal(t, 6, f.closes, "sessions are released even when the insert fails")
}

func TestEveryIterationGetsNContacts(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		f := &fakeStrategy{}
		NewWorker(0, f, Options{Iterations: 3, ContactsPerCompany: n}).Run(context.Background())
		assert.Equal(t, []int{n, n, n}, f.contacts)
	}
}

func TestOpenFailureSkipsExecution(t *testing.T) {
	var got []transition
	f := &fakeStrategy{openErr: errors.New("connection refused")}
	w := NewWorker(0, f, Options{
		Iterations:   2,
		OnTransition: func(from, to State) { got = append(got, transition{from, to}) },
	})

	res := w.Run(context.Background())

	assert.Equal(t, 0, res.CompleteCount)
	assert.Equal(t, 2, res.AbortCount)
	assert.Empty(t, res.Rts)
	assert.Equal(t, 0, f.inserts)
	assert.NotContains(t, got, transition{SetUp, Executing})
	assert.Contains(t, got, transition{SetUp, CleaningUp})
}

func TestConnectionOpenedOutsideTimedRegionByDefault(t *testing.T) {
	f := &fakeStrategy{}
	w := NewWorker(0, f, Options{Iterations: 2})
	f.state = &w.state

	w.Run(context.Background())

	assert.Equal(t, []State{SetUp, SetUp}, f.openStates)
	assert.Equal(t, 2, f.closes)
}

func TestIncludeConnectOpensInsideTimedRegion(t *testing.T) {
	f := &fakeStrategy{}
	w := NewWorker(0, f, Options{Iterations: 2, IncludeConnect: true})
	f.state = &w.state

	res := w.Run(context.Background())

	assert.Equal(t, []State{Executing, Executing}, f.openStates)
	assert.Equal(t, 2, f.closes)
	assert.Equal(t, 2, res.CompleteCount)
}

func TestCloseFailureKeepsCommittedIteration(t *testing.T) {
	for _, includeConnect := range []bool{false, true} {
		f := &fakeStrategy{closeErr: errors.New("connection reset")}
		res := NewWorker(0, f, Options{Iterations: 2, ContactsPerCompany: 1, IncludeConnect: includeConnect}).
			Run(context.Background())

		assert.Equal(t, 2, res.CompleteCount, "includeConnect=%t", includeConnect)
		assert.Zero(t, res.AbortCount, "includeConnect=%t", includeConnect)
		assert.Equal(t, 4, res.Rows, "includeConnect=%t", includeConnect)
		assert.Equal(t, 2, f.closes)
	}
}

func TestVerifierRunsDuringCleanup(t *testing.T) {
	var w *Worker
	var states []State
	verifier := verifierFunc(func(ctx context.Context, company model.Company) error {
		states = append(states, w.state)
		for _, c := range company.Contacts {
			if c.CompanyID != company.ID {
				return errors.New("foreign key mismatch")
			}
		}
		if company.ID == 1 {
			return errors.New("differs")
		}
		return nil
	})
	w = NewWorker(0, &fakeStrategy{}, Options{Iterations: 2, ContactsPerCompany: 2, Verifier: verifier})

	res := w.Run(context.Background())

	assert.Equal(t, []State{CleaningUp, CleaningUp}, states)
	assert.Equal(t, 1, res.CompleteCount)
	assert.Equal(t, 1, res.AbortCount)
	assert.Equal(t, 1, res.VerifyFailures)
}

func TestVerifierSkippedOnFailure(t *testing.T) {
	called := 0
	verifier := verifierFunc(func(ctx context.Context, company model.Company) error {
		called++
		return nil
	})
	f := &fakeStrategy{failInsert: map[int]error{0: errors.New("boom")}}
	NewWorker(0, f, Options{Iterations: 2, Verifier: verifier}).Run(context.Background())

	assert.Equal(t, 1, called)
}

func TestCancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeStrategy{}

	res := NewWorker(0, f, Options{Iterations: 5}).Run(ctx)

	assert.Equal(t, 0, f.opens)
	assert.Equal(t, 0, res.CompleteCount+res.AbortCount)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "executing", Executing.String())
	assert.Equal(t, "cleanup", CleaningUp.String())
	assert.Equal(t, "state(9)", State(9).String())
}
