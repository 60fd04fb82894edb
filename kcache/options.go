// SPDX-License-Identifier: MIT
// Package kcache: functional configuration.
//
// Defaults are the single source of truth for a zero-option cache. Option
// constructors panic only on nonsensical values (programmer error); runtime
// budget changes go through SetMaximumSize, which returns an error instead.

package kcache

import "log/slog"

// DefaultMaximumSize is the default row budget: 256 MiB.
const DefaultMaximumSize int64 = 256 << 20

// minCapacity is the first capacity allocated for ids and positions.
const minCapacity = 256

const panicMaximumSizeInvalid = "kcache: WithMaximumSize: size must be non-negative"

// Option configures a Cache at construction time.
type Option func(*options)

type options struct {
	maxSize int64
	logger  *slog.Logger
	metrics *Metrics
}

func defaultOptions() options {
	return options{
		maxSize: DefaultMaximumSize,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithMaximumSize sets the row budget in bytes.
// Panics when bytes is negative.
func WithMaximumSize(bytes int64) Option {
	if bytes < 0 {
		panic(panicMaximumSizeInvalid)
	}

	return func(o *options) { o.maxSize = bytes }
}

// WithLogger routes budget and eviction messages to l. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics reports cache activity to m. Several caches may share one Metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
