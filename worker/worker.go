package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	engine "crmbench/benchmark/engines/abstract"
	"crmbench/fixture"
	"crmbench/model"
)

// State of the iteration lifecycle: Idle -> SetUp -> Executing -> Measured -> CleaningUp -> Idle.
// A failed SetUp goes straight to CleaningUp.
type State int

const (
	Idle State = iota
	SetUp
	Executing
	Measured
	CleaningUp
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SetUp:
		return "setup"
	case Executing:
		return "executing"
	case Measured:
		return "measured"
	case CleaningUp:
		return "cleanup"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Verifier checks an inserted aggregate against storage, outside the timed region.
type Verifier interface {
	Verify(ctx context.Context, company model.Company) error
}

type Options struct {
	Iterations         int
	Warmup             int
	ContactsPerCompany int
	// Open and close the session inside the timed region
	IncludeConnect bool
	// 0 draws a random seed for every iteration
	Seed         uint64
	Verifier     Verifier
	OnTransition func(from, to State)
}

type Worker struct {
	id              int
	strategy        engine.Strategy
	opts            Options
	state           State
	operationsToLog chan *OperationLogEntry
	operationLogWg  *sync.WaitGroup
}

type OperationLogEntry struct {
	iteration int
	warmup    bool
	rt        float64
	err       error
	t         time.Time
}

type Metric struct {
	Rts            []float64 // response times (seconds) of committed iterations
	TotalRt        float64   // sum of Rts
	CompleteCount  int       // committed iterations
	AbortCount     int       // failed iterations, including setup and verification failures
	VerifyFailures int       // committed iterations whose read back differed
	Rows           int       // rows written by committed iterations
}

type BenchmarkResults struct {
	Strategy     string
	Run          int
	RealDuration float64 // wall time of the measured iterations, setup and cleanup included
	Metric
}

type outcome struct {
	rt        float64
	rows      int
	err       error
	verifyErr error
}

func NewWorker(id int, strategy engine.Strategy, opts Options) *Worker {
	worker := new(Worker)
	worker.id = id
	worker.strategy = strategy
	worker.opts = opts
	worker.state = Idle
	worker.operationsToLog = make(chan *OperationLogEntry, 1024)
	worker.operationLogWg = &sync.WaitGroup{}
	return worker
}

func (w *Worker) log(msg string) {
	zlog.Info().Str("strategy", w.strategy.Name()).Int("run", w.id).Msg(msg)
}

func (w *Worker) logOperationsWorker() {
	for operation := range w.operationsToLog {
		if operation == nil {
			break
		}

		var msg string
		if operation.err == nil {
			msg = "completed"
		} else {
			msg = "aborted"
		}

		e := zlog.Debug().Str("strategy", w.strategy.Name()).Int("run", w.id).
			Int("iteration", operation.iteration).Bool("warmup", operation.warmup).
			Float64("rt", operation.rt).Time("real_time", operation.t)
		if operation.err != nil {
			e = e.Err(operation.err)
		}
		e.Msg(msg)
	}

	w.operationLogWg.Done()
}

func (w *Worker) transition(to State) {
	from := w.state
	w.state = to
	zlog.Trace().Str("strategy", w.strategy.Name()).Stringer("from", from).Stringer("to", to).Msg("transition")
	if w.opts.OnTransition != nil {
		w.opts.OnTransition(from, to)
	}
}

func (w *Worker) generator(iteration int) *fixture.Generator {
	if w.opts.Seed == 0 {
		return fixture.New(0)
	}
	return fixture.New(w.opts.Seed + uint64(iteration))
}

// Runs the warmup iterations followed by the measured ones, one after the other. Stops early
// if ctx is done.
func (w *Worker) Run(ctx context.Context) *BenchmarkResults {
	w.operationLogWg.Add(1)
	go w.logOperationsWorker()

	results := &BenchmarkResults{Strategy: w.strategy.Name(), Run: w.id}
	total := w.opts.Warmup + w.opts.Iterations

	w.log("Running")
	var start time.Time
	for i := 0; i < total && ctx.Err() == nil; i++ {
		warmup := i < w.opts.Warmup
		if i == w.opts.Warmup {
			start = time.Now()
		}

		o := w.iterate(ctx, i)
		err := o.err
		if err == nil {
			err = o.verifyErr
		}
		w.operationsToLog <- &OperationLogEntry{i, warmup, o.rt, err, time.Now()}

		if warmup {
			continue
		}
		if err == nil {
			results.CompleteCount++
			results.Rts = append(results.Rts, o.rt)
			results.TotalRt += o.rt
			results.Rows += o.rows
		} else {
			results.AbortCount++
			if o.verifyErr != nil {
				results.VerifyFailures++
			}
		}
	}
	if !start.IsZero() {
		results.RealDuration = time.Since(start).Seconds()
	}

	w.operationsToLog <- nil
	w.operationLogWg.Wait()
	w.log("Done")

	return results
}

func (w *Worker) iterate(ctx context.Context, iteration int) (o outcome) {
	var session engine.Session
	var inserted model.Company

	// the session is released on every path
	defer func() {
		w.transition(CleaningUp)
		if session != nil {
			if err := session.Close(); err != nil {
				zlog.Warn().Str("strategy", w.strategy.Name()).Err(err).Msg("close session")
			}
		}
		if o.err == nil && w.opts.Verifier != nil {
			o.verifyErr = w.opts.Verifier.Verify(ctx, inserted)
		}
		w.transition(Idle)
	}()

	w.transition(SetUp)
	company := w.generator(iteration).Company(w.opts.ContactsPerCompany)
	if !w.opts.IncludeConnect {
		s, err := w.strategy.Open(ctx)
		if err != nil {
			o.err = fmt.Errorf("open session: %w", err)
			return o
		}
		session = s
	}

	w.transition(Executing)
	start := time.Now()
	inserted, o.err = w.execute(ctx, session, company)
	o.rt = time.Since(start).Seconds()
	w.transition(Measured)

	if o.err == nil {
		o.rows = inserted.Rows()
	}
	return o
}

// The timed region. Without a session, one is opened and closed here.
func (w *Worker) execute(ctx context.Context, session engine.Session, company model.Company) (model.Company, error) {
	if session != nil {
		return session.Insert(ctx, company)
	}

	s, err := w.strategy.Open(ctx)
	if err != nil {
		return model.Company{}, fmt.Errorf("open session: %w", err)
	}
	inserted, err := s.Insert(ctx, company)
	// the insert has committed or rolled back by now
	if cerr := s.Close(); cerr != nil {
		zlog.Warn().Str("strategy", w.strategy.Name()).Err(cerr).Msg("close session")
	}
	return inserted, err
}
