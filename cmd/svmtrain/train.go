package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/lvsvm/kcache"
	"github.com/katalvlaran/lvsvm/kernel"
	"github.com/katalvlaran/lvsvm/lasvm"
)

// model is what both strategies expose once trained.
type model interface {
	PredictNoCache(id int) (float64, error)
	SupportVectors() []lasvm.SupportVector
	Objective() float64
	Bias() float64
	Gap() float64
	Close()
}

// Report summarizes one training run.
type Report struct {
	Mode           string
	Examples       int
	SupportVectors int
	Bounded        int
	Iterations     int
	Objective      float64
	Bias           float64
	Gap            float64
	KernelEvals    uint64
	Tested         int
	Accuracy       float64 // NaN without a test set
	Elapsed        time.Duration
}

// Train fits cfg on train and scores it on test when not nil. reg may be nil.
func Train(ctx context.Context, cfg Config, train, test *kernel.Dataset, log *slog.Logger, reg prometheus.Registerer) (Report, error) {
	start := time.Now()
	all := train
	if test != nil {
		all = train.Concat(test)
	}
	fn, err := kernel.ByName(all, cfg.Kernel.Name, cfg.Kernel.Degree, cfg.Kernel.Gamma, cfg.Kernel.Coef0)
	if err != nil {
		return Report{}, err
	}

	cacheOpts := []kcache.Option{
		kcache.WithMaximumSize(cfg.Cache.SizeMB << 20),
		kcache.WithLogger(log.With(slog.String("component", "kcache"))),
	}
	solverOpts := append(cfg.solverOptions(), lasvm.WithLogger(log.With(slog.String("component", "lasvm"))))
	if reg != nil {
		cacheOpts = append(cacheOpts, kcache.WithMetrics(kcache.NewMetrics(reg, "svmtrain")))
		solverOpts = append(solverOpts, lasvm.WithMetrics(lasvm.NewMetrics(reg, "svmtrain")))
	}
	k := kcache.NewKernel(fn)
	cache, err := kcache.New(k, cacheOpts...)
	if err != nil {
		return Report{}, err
	}
	defer cache.Close()

	var (
		m    model
		iter int
	)
	switch cfg.Solver.Mode {
	case "batch":
		m, iter, err = trainBatch(ctx, cfg, cache, train, solverOpts)
	default:
		m, iter, err = trainOnline(ctx, cfg, cache, train, solverOpts, log)
	}
	if err != nil {
		return Report{}, err
	}
	defer m.Close()

	rep := Report{
		Mode:       cfg.Solver.Mode,
		Examples:   train.Len(),
		Iterations: iter,
		Objective:  m.Objective(),
		Bias:       m.Bias(),
		Gap:        m.Gap(),
		Accuracy:   math.NaN(),
	}
	for _, sv := range m.SupportVectors() {
		rep.SupportVectors++
		if sv.Alpha == cfg.Solver.C || sv.Alpha == -cfg.cNegative() {
			rep.Bounded++
		}
	}
	if test != nil {
		correct := 0
		for i := 0; i < test.Len(); i++ {
			f, err := m.PredictNoCache(train.Len() + i)
			if err != nil {
				return rep, err
			}
			if (f > 0) == (test.Label(i) > 0) {
				correct++
			}
		}
		rep.Tested = test.Len()
		rep.Accuracy = float64(correct) / float64(test.Len())
	}
	rep.KernelEvals = k.Evaluations()
	rep.Elapsed = time.Since(start)

	return rep, nil
}

// trainOnline feeds the examples in a seeded random order for the configured
// number of epochs, one Reprocess after each Process, then finishes.
func trainOnline(ctx context.Context, cfg Config, cache *kcache.Cache, ds *kernel.Dataset, opts []lasvm.Option, log *slog.Logger) (model, int, error) {
	o, err := lasvm.NewOnline(cache, cfg.Solver.C, cfg.cNegative(), opts...)
	if err != nil {
		return nil, 0, err
	}
	rng := rand.New(rand.NewPCG(cfg.Solver.Seed, cfg.Solver.Seed^0x9e3779b97f4a7c15))
	steps := 0
	for epoch := 0; epoch < cfg.Solver.Epochs; epoch++ {
		for _, id := range rng.Perm(ds.Len()) {
			if err = ctx.Err(); err != nil {
				o.Close()

				return nil, steps, err
			}
			if _, err = o.Process(id, ds.Label(id)); err != nil {
				o.Close()

				return nil, steps, err
			}
			if _, err = o.Reprocess(cfg.Solver.Epsilon); err != nil {
				o.Close()

				return nil, steps, err
			}
			steps++
		}
		log.Info("epoch done", slog.Int("epoch", epoch+1), slog.Int("working_set", o.Len()), slog.Float64("gap", o.Gap()))
	}
	n, err := o.Finish(ctx, cfg.Solver.Epsilon)
	if err != nil {
		o.Close()

		return nil, steps, err
	}

	return o, steps + n, nil
}

// trainBatch solves the whole training set at once.
func trainBatch(ctx context.Context, cfg Config, cache *kcache.Cache, ds *kernel.Dataset, opts []lasvm.Option) (model, int, error) {
	b, err := lasvm.NewBatch(cache, ds.Len(), opts...)
	if err != nil {
		return nil, 0, err
	}
	for id := 0; id < ds.Len(); id++ {
		if err = b.SetLabel(id, ds.Label(id), cfg.Solver.C, cfg.cNegative()); err != nil {
			b.Close()

			return nil, 0, err
		}
	}
	n, err := b.Run(ctx, cfg.Solver.Epsilon)
	if err != nil {
		b.Close()

		return nil, n, err
	}

	return b, n, nil
}

// WriteReport prints rep in a stable key: value layout.
func WriteReport(w io.Writer, rep Report) error {
	_, err := fmt.Fprintf(w,
		"mode: %s\nexamples: %d\nsupport_vectors: %d\nbounded: %d\niterations: %d\nobjective: %.6g\nbias: %.6g\ngap: %.3g\nkernel_evaluations: %d\n",
		rep.Mode, rep.Examples, rep.SupportVectors, rep.Bounded, rep.Iterations,
		rep.Objective, rep.Bias, rep.Gap, rep.KernelEvals)
	if err != nil {
		return err
	}
	if rep.Tested > 0 {
		if _, err = fmt.Fprintf(w, "tested: %d\naccuracy: %.4f\n", rep.Tested, rep.Accuracy); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "elapsed: %s\n", rep.Elapsed.Round(time.Millisecond))

	return err
}
