package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/eval"
	"github.com/lox/bridgedealer/internal/gen"
	"github.com/lox/bridgedealer/internal/script"
)

// Emitted is one matching deal handed to the output sink, in serial
// order.
type Emitted struct {
	Deal   deck.Deal
	Serial uint64
	// Number is the 0-indexed produced ordinal.
	Number int
}

// Config drives one generation run.
type Config struct {
	Program *script.Program
	Predeal *gen.Predeal

	Seed   uint64
	Legacy bool

	// Produce and Generate are the resolved termination targets;
	// whichever is reached first wins.
	Produce  int
	Generate int

	// Workers is the fast-mode pool size (0 = one per CPU). Ignored
	// in legacy mode, which is strictly single-threaded.
	Workers int
	// BatchSize is the fast-mode dispatch size (0 = 200 per worker).
	BatchSize int

	// Timeout is an optional wall-clock deadline; zero disables it.
	Timeout time.Duration
	// Clock abstracts time for the timeout so tests can drive it.
	Clock quartz.Clock

	Logger zerolog.Logger

	// Emit receives each matching deal in serial order. The sink is
	// owned by the supervisor; workers never touch it.
	Emit func(Emitted) error
}

// Result summarises a finished run.
type Result struct {
	Generated uint64
	Produced  uint64
	TimedOut  bool
	Totals    *Totals
}

// Supervisor owns the master PRNG, drives generation and exposes the
// atomic counters the progress meter reads.
type Supervisor struct {
	cfg       Config
	clock     quartz.Clock
	generated atomic.Uint64
	produced  atomic.Uint64
}

// New creates a supervisor for one run.
func New(cfg Config) *Supervisor {
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Supervisor{cfg: cfg, clock: clock}
}

// Counters returns the current generated and produced counts. Safe to
// call concurrently with Run.
func (s *Supervisor) Counters() (generated, produced uint64) {
	return s.generated.Load(), s.produced.Load()
}

// Run generates deals until a termination target, the timeout or a
// fatal evaluation error. Output order equals serial order of
// matching deals in both modes.
func (s *Supervisor) Run(ctx context.Context) (*Result, error) {
	if s.cfg.Legacy {
		return s.runLegacy(ctx)
	}
	return s.runFast(ctx)
}

func (s *Supervisor) emit(d deck.Deal, serial uint64) error {
	if s.cfg.Emit == nil {
		return nil
	}
	return s.cfg.Emit(Emitted{Deal: d, Serial: serial, Number: int(s.produced.Load())})
}

// runLegacy is the strict single-threaded reproduction path: the
// master PRNG advances sequentially and every deal depends on it.
func (s *Supervisor) runLegacy(ctx context.Context) (*Result, error) {
	totals := newTotals(s.cfg.Program)
	result := &Result{Totals: totals}

	s.cfg.Logger.Debug().
		Uint64("seed", s.cfg.Seed).
		Int("produce", s.cfg.Produce).
		Int("generate", s.cfg.Generate).
		Msg("Starting legacy single-threaded run")

	generator := gen.NewLegacyGenerator(uint32(s.cfg.Seed), s.cfg.Predeal)
	evalCtx := eval.NewContext(s.cfg.Program)

	deadline, hasDeadline := s.deadline()

	for int(s.produced.Load()) < s.cfg.Produce && int(s.generated.Load()) < s.cfg.Generate {
		if ctx.Err() != nil {
			break
		}
		if hasDeadline && s.generated.Load()%1000 == 0 && !s.clock.Now().Before(deadline) {
			result.TimedOut = true
			break
		}

		d := generator.Next()
		serial := s.generated.Add(1) - 1

		evalCtx.Reset(&d)
		pass, err := evalCtx.Condition()
		if err != nil {
			return nil, err
		}
		if !pass {
			continue
		}

		samples, err := takeSamples(evalCtx, s.cfg.Program)
		if err != nil {
			return nil, err
		}
		if err := s.emit(d, serial); err != nil {
			return nil, err
		}
		totals.merge(samples)
		s.produced.Add(1)
	}

	result.Generated = s.generated.Load()
	result.Produced = s.produced.Load()
	return result, nil
}

// completedWork is a worker's result for one serial.
type completedWork struct {
	serial  uint64
	pass    bool
	deal    deck.Deal
	samples sampleSet
	err     error
}

// runFast dispatches batches of seed-derived work units to a worker
// pool and processes completions strictly in serial order, so output
// is byte-identical for any worker count.
func (s *Supervisor) runFast(ctx context.Context) (*Result, error) {
	totals := newTotals(s.cfg.Program)
	result := &Result{Totals: totals}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200 * workers
	}

	s.cfg.Logger.Debug().
		Uint64("seed", s.cfg.Seed).
		Int("workers", workers).
		Int("batch_size", batchSize).
		Int("produce", s.cfg.Produce).
		Int("generate", s.cfg.Generate).
		Msg("Starting fast parallel run")

	generator := gen.NewFastGenerator(s.cfg.Seed, s.cfg.Predeal)
	deadline, hasDeadline := s.deadline()

	// The stop flag is polled by workers at task entry and between
	// the shuffle and evaluate stages. Cancelled work returns Fail
	// quickly and is discarded by the supervisor.
	var stop atomic.Bool

	var nextSerial uint64
	done := false

	for !done && int(s.produced.Load()) < s.cfg.Produce && int(s.generated.Load()) < s.cfg.Generate {
		if ctx.Err() != nil {
			break
		}

		remaining := s.cfg.Generate - int(s.generated.Load())
		size := batchSize
		if size > remaining {
			size = remaining
		}
		if size == 0 {
			break
		}

		jobs := make(chan uint64, size)
		results := make(chan completedWork, size)
		for i := 0; i < size; i++ {
			jobs <- nextSerial
			nextSerial++
		}
		close(jobs)

		g, _ := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				evalCtx := eval.NewContext(s.cfg.Program)
				for serial := range jobs {
					results <- s.work(evalCtx, generator, serial, &stop)
				}
				return nil
			})
		}
		go func() {
			// Workers block only to push results; the channel is
			// sized for the whole batch so the group always drains.
			_ = g.Wait()
			close(results)
		}()

		// Drain completions, processing them in serial order and
		// buffering out-of-order arrivals.
		pending := make(map[uint64]completedWork, workers*2)
		processSerial := nextSerial - uint64(size)
		for work := range results {
			pending[work.serial] = work
			for {
				next, ok := pending[processSerial]
				if !ok {
					break
				}
				delete(pending, processSerial)
				processSerial++

				if stop.Load() {
					continue
				}
				if next.err != nil {
					stop.Store(true)
					// Drain the rest of the batch, then fail.
					for range results {
					}
					return nil, next.err
				}

				s.generated.Add(1)

				if next.pass && int(s.produced.Load()) < s.cfg.Produce {
					if err := s.emit(next.deal, next.serial); err != nil {
						stop.Store(true)
						for range results {
						}
						return nil, err
					}
					totals.merge(next.samples)
					s.produced.Add(1)
				}

				reachedProduce := int(s.produced.Load()) >= s.cfg.Produce
				reachedGenerate := int(s.generated.Load()) >= s.cfg.Generate
				timedOut := hasDeadline && !s.clock.Now().Before(deadline)
				if reachedProduce || reachedGenerate || timedOut {
					if timedOut && !reachedProduce && !reachedGenerate {
						result.TimedOut = true
					}
					stop.Store(true)
					done = true
				}
			}
		}
	}

	result.Generated = s.generated.Load()
	result.Produced = s.produced.Load()
	return result, nil
}

// work generates and evaluates one serial. The stop flag is checked
// at entry and again between shuffle and evaluation.
func (s *Supervisor) work(evalCtx *eval.Context, generator *gen.FastGenerator, serial uint64, stop *atomic.Bool) completedWork {
	if stop.Load() {
		return completedWork{serial: serial}
	}

	d := gen.DealFromSeed(generator.SeedFor(serial), generator.Predeal())

	if stop.Load() {
		return completedWork{serial: serial}
	}

	evalCtx.Reset(&d)
	pass, err := evalCtx.Condition()
	if err != nil {
		return completedWork{serial: serial, err: err}
	}
	if !pass {
		return completedWork{serial: serial}
	}

	samples, err := takeSamples(evalCtx, s.cfg.Program)
	if err != nil {
		return completedWork{serial: serial, err: err}
	}
	return completedWork{serial: serial, pass: true, deal: d, samples: samples}
}

func (s *Supervisor) deadline() (time.Time, bool) {
	if s.cfg.Timeout <= 0 {
		return time.Time{}, false
	}
	return s.clock.Now().Add(s.cfg.Timeout), true
}
