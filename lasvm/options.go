// SPDX-License-Identifier: MIT
// Package lasvm: functional configuration for both strategies.
//
// Option constructors panic only on nonsensical values (programmer error),
// the same policy as the matrix options they are modelled on. Every switch
// here changes solver behaviour and is covered by tests.

package lasvm

import (
	"log/slog"
	"math"
)

// Numeric policy defaults.
const (
	// DefaultTau is the smallest curvature used for a Newton step; below it
	// the step runs to the box bound.
	DefaultTau = 1e-12

	// DefaultPSDTolerance is the relative negative curvature tolerated before
	// the kernel is declared not positive semi-definite.
	DefaultPSDTolerance = 1e-8

	// DefaultKKTEpsilon is the distance to a bound under which a coefficient
	// counts as sitting on it for selection.
	DefaultKKTEpsilon = 1e-12
)

// Strategy defaults.
const (
	// DefaultEqualityConstraint keeps Σα fixed (paired steps, bias term).
	DefaultEqualityConstraint = true

	// DefaultMaxGain disables the maximum-gain working-set heuristic.
	DefaultMaxGain = false

	// DefaultGradientBaseline disables the bound-coefficient gradient
	// baseline of the batch strategy.
	DefaultGradientBaseline = false

	// DefaultShrinking enables shrinking in Finish and Run.
	DefaultShrinking = true

	// maxShrinkPeriod caps the automatic shrink period.
	maxShrinkPeriod = 1000

	// cancelCheckPeriod is the number of steps between context checks.
	cancelCheckPeriod = 128
)

const (
	panicTauInvalid          = "lasvm: WithTau: tau must be finite and > 0"
	panicPSDToleranceInvalid = "lasvm: WithPSDTolerance: tolerance must be finite and >= 0"
	panicKKTEpsilonInvalid   = "lasvm: WithKKTEpsilon: eps must be finite and >= 0"
	panicShrinkPeriodInvalid = "lasvm: WithShrinkPeriod: period must be >= 0"
	panicMaxIterInvalid      = "lasvm: WithMaxIterations: limit must be >= 0"
)

// Option configures a solver at construction time.
type Option func(*config)

type config struct {
	sum          bool
	maxGain      bool
	baseline     bool
	shrinking    bool
	shrinkPeriod int // 0: min(l, maxShrinkPeriod)
	maxIter      int // 0: unlimited
	tau          float64
	psdTol       float64
	epsKKT       float64
	log          *slog.Logger
	metrics      *Metrics
}

func defaultConfig() config {
	return config{
		sum:       DefaultEqualityConstraint,
		maxGain:   DefaultMaxGain,
		baseline:  DefaultGradientBaseline,
		shrinking: DefaultShrinking,
		tau:       DefaultTau,
		psdTol:    DefaultPSDTolerance,
		epsKKT:    DefaultKKTEpsilon,
		log:       slog.New(slog.DiscardHandler),
	}
}

func gatherConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithEqualityConstraint toggles the constraint Σα = const. When enabled the
// solver takes paired steps and reports a bias; when disabled it takes
// single-coordinate steps and the bias is zero.
func WithEqualityConstraint(on bool) Option {
	return func(c *config) { c.sum = on }
}

// WithMaxGain enables the maximum-gain pair selection: when the row of an
// extreme-gradient coordinate is already resident, its partner is chosen to
// maximize the unclipped objective gain instead of the opposite extreme.
// It only affects the equality-constrained mode.
func WithMaxGain(on bool) Option {
	return func(c *config) { c.maxGain = on }
}

// WithGradientBaseline makes the batch strategy maintain, for every
// coordinate, the gradient contribution of the coefficients sitting at a
// non-zero bound. Unshrinking then only needs the rows of free coefficients.
// The online strategy ignores it.
func WithGradientBaseline(on bool) Option {
	return func(c *config) { c.baseline = on }
}

// WithShrinking toggles shrinking of bound-stuck coordinates.
func WithShrinking(on bool) Option {
	return func(c *config) { c.shrinking = on }
}

// WithShrinkPeriod sets the number of steps between shrink passes; 0 selects
// min(working set, 1000).
func WithShrinkPeriod(n int) Option {
	if n < 0 {
		panic(panicShrinkPeriodInvalid)
	}

	return func(c *config) { c.shrinkPeriod = n }
}

// WithMaxIterations bounds the steps of one Finish or Run; 0 is unlimited.
func WithMaxIterations(n int) Option {
	if n < 0 {
		panic(panicMaxIterInvalid)
	}

	return func(c *config) { c.maxIter = n }
}

// WithTau sets the minimal curvature for a Newton step.
func WithTau(tau float64) Option {
	if math.IsNaN(tau) || math.IsInf(tau, 0) || tau <= 0 {
		panic(panicTauInvalid)
	}

	return func(c *config) { c.tau = tau }
}

// WithPSDTolerance sets the relative negative-curvature tolerance.
func WithPSDTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(panicPSDToleranceInvalid)
	}

	return func(c *config) { c.psdTol = tol }
}

// WithKKTEpsilon sets how close to a bound a coefficient must be to be
// treated as sitting on it.
func WithKKTEpsilon(eps float64) Option {
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps < 0 {
		panic(panicKKTEpsilonInvalid)
	}

	return func(c *config) { c.epsKKT = eps }
}

// WithLogger routes solver diagnostics to l. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics reports solver activity to m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}
