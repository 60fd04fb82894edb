package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvsvm/kernel"
)

// trainFlags mirrors the configuration keys that can be overridden.
type trainFlags struct {
	config      string
	kernel      string
	gamma       float64
	degree      int
	coef0       float64
	mode        string
	c           float64
	cNegative   float64
	epsilon     float64
	epochs      int
	seed        uint64
	cacheMB     int64
	maxGain     bool
	baseline    bool
	noShrinking bool
	noEquality  bool
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "svmtrain",
		Short:         "Train kernel SVMs with a bounded kernel row cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTrainCmd(), newConfigCmd())

	return root
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(DefaultConfig()); err != nil {
				return err
			}

			return enc.Close()
		},
	}
}

func newTrainCmd() *cobra.Command {
	var f trainFlags
	cmd := &cobra.Command{
		Use:   "train TRAIN_FILE [TEST_FILE]",
		Short: "Train on a LIBSVM file and optionally score a test file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			if err = cfg.Validate(); err != nil {
				return err
			}

			return runTrain(cmd, cfg, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "YAML configuration file")
	fl.StringVar(&f.kernel, "kernel", "", "kernel: linear, rbf or poly")
	fl.Float64Var(&f.gamma, "gamma", 0, "kernel gamma")
	fl.IntVar(&f.degree, "degree", 0, "polynomial degree")
	fl.Float64Var(&f.coef0, "coef0", 0, "polynomial coef0")
	fl.StringVar(&f.mode, "mode", "", "solver: online or batch")
	fl.Float64VarP(&f.c, "cost", "c", 0, "box size C")
	fl.Float64Var(&f.cNegative, "c-negative", 0, "box size of negative examples (default C)")
	fl.Float64Var(&f.epsilon, "epsilon", 0, "stopping tolerance on the gradient gap")
	fl.IntVar(&f.epochs, "epochs", 0, "online passes over the data")
	fl.Uint64Var(&f.seed, "seed", 0, "online ingestion order seed")
	fl.Int64Var(&f.cacheMB, "cache-mb", 0, "kernel cache budget in MiB")
	fl.BoolVar(&f.maxGain, "max-gain", false, "maximum-gain pair selection")
	fl.BoolVar(&f.baseline, "gradient-baseline", false, "batch: keep the bound-coefficient gradient baseline")
	fl.BoolVar(&f.noShrinking, "no-shrinking", false, "disable shrinking")
	fl.BoolVar(&f.noEquality, "no-equality", false, "drop the Σα constraint (no bias)")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *trainFlags) apply(cmd *cobra.Command, cfg *Config) {
	set := cmd.Flags().Changed
	if set("kernel") {
		cfg.Kernel.Name = f.kernel
	}
	if set("gamma") {
		cfg.Kernel.Gamma = f.gamma
	}
	if set("degree") {
		cfg.Kernel.Degree = f.degree
	}
	if set("coef0") {
		cfg.Kernel.Coef0 = f.coef0
	}
	if set("mode") {
		cfg.Solver.Mode = f.mode
	}
	if set("cost") {
		cfg.Solver.C = f.c
	}
	if set("c-negative") {
		cfg.Solver.CNegative = f.cNegative
	}
	if set("epsilon") {
		cfg.Solver.Epsilon = f.epsilon
	}
	if set("epochs") {
		cfg.Solver.Epochs = f.epochs
	}
	if set("seed") {
		cfg.Solver.Seed = f.seed
	}
	if set("cache-mb") {
		cfg.Cache.SizeMB = f.cacheMB
	}
	if set("max-gain") {
		cfg.Solver.MaxGain = f.maxGain
	}
	if set("gradient-baseline") {
		cfg.Solver.Baseline = f.baseline
	}
	if set("no-shrinking") {
		cfg.Solver.Shrinking = !f.noShrinking
	}
	if set("no-equality") {
		cfg.Solver.Equality = !f.noEquality
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if set("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
}

func runTrain(cmd *cobra.Command, cfg Config, args []string) error {
	lvl, err := cfg.logLevel()
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	train, err := readDataset(args[0])
	if err != nil {
		return err
	}
	var test *kernel.Dataset
	if len(args) == 2 {
		if test, err = readDataset(args[1]); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	if cfg.Metrics.Addr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		shutdown, err := serveMetrics(cfg.Metrics.Addr, reg, log)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	rep, err := Train(ctx, cfg, train, test, log, registerer)
	if err != nil {
		return err
	}

	return WriteReport(cmd.OutOrStdout(), rep)
}

func readDataset(path string) (*kernel.Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	ds, err := kernel.ReadLibSVM(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ds, nil
}

// serveMetrics exposes reg on addr/metrics until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", slog.Any("err", err))
		}
	}()
	log.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
