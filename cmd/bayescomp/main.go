package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/config"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/metrics"
	"github.com/smthzch/BayesianComputation/internal/runner"
)

const metricsShutdownTimeout = 5 * time.Second

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "YAML file with configuration defaults. Flags and BAYESCOMP_* env vars override it.")
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(flag.CommandLine, configFile)
	if err != nil {
		// Logger is not configured yet.
		ctrl.SetLogger(logging.NewLogger(0))
		ctrl.Log.Error(err, "unable to load configuration")
		os.Exit(1)
	}

	ctrl.SetLogger(logging.NewLogger(cfg.Verbosity))
	setupLog := ctrl.Log.WithName("setup")

	observations, err := config.LoadObservations(cfg.ObservationsFile)
	if err != nil {
		setupLog.Error(err, "unable to load observations")
		os.Exit(1)
	}

	ctx := log.IntoContext(ctrl.SetupSignalHandler(), ctrl.Log.WithName("runner"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		setupLog.Error(err, "unable to create metrics recorder")
		os.Exit(1)
	}
	stopMetrics := serveMetrics(cfg.MetricsAddr, reg)
	defer stopMetrics()

	setupLog.Info("Starting inference", "variant", cfg.Variant, "observations", len(observations), "sweep", cfg.IsSweep())
	if err := run(ctx, cfg, observations, recorder, os.Stdout); err != nil {
		setupLog.Error(err, "inference failed")
		stopMetrics()
		os.Exit(1)
	}
}

// run executes one run or a sweep and writes the results to out as YAML.
func run(ctx context.Context, cfg *config.Config, observations []float64, recorder *metrics.Recorder, out io.Writer) error {
	var doc any
	if cfg.IsSweep() {
		results, err := runner.Sweep(ctx, cfg, observations, recorder)
		if err != nil {
			return err
		}
		doc = results
	} else {
		result, err := runner.Run(ctx, cfg, observations, recorder)
		if err != nil {
			return err
		}
		doc = result
	}

	enc := yaml.NewEncoder(out)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// serveMetrics exposes reg on addr unless addr is "0". The returned function
// shuts the endpoint down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	if addr == "" || addr == "0" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	metricsLog := ctrl.Log.WithName("metrics")
	go func() {
		metricsLog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsLog.Error(err, "metrics endpoint failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
