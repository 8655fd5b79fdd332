// Command bench runs a synthetic freshness workload against the cache: a
// simulated upstream per data category, Zipf-distributed SmartGet readers,
// and the admin/Prometheus endpoints for poking at it while it runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/freshcache/cache"
	"github.com/IvanBrykalov/freshcache/internal/admin"
	"github.com/IvanBrykalov/freshcache/internal/config"
	"github.com/IvanBrykalov/freshcache/internal/errorreporting"
	"github.com/IvanBrykalov/freshcache/internal/logger"
	"github.com/IvanBrykalov/freshcache/internal/tracing"
	pmet "github.com/IvanBrykalov/freshcache/metrics/prom"
	"github.com/IvanBrykalov/freshcache/policy"
)

// workload holds the flag-driven benchmark parameters.
type workload struct {
	timescale float64

	workers  int
	duration time.Duration

	keys   int
	zipfS  float64
	zipfV  float64
	seed   int64
	warmup bool

	rps      float64
	burst    int
	latency  time.Duration
	failRate float64

	pprofAddr string
}

func (w workload) validate() error {
	switch {
	case w.keys < 1:
		return fmt.Errorf("keys must be >= 1, got %d", w.keys)
	case w.zipfS <= 1:
		return fmt.Errorf("zipf_s must be > 1, got %v", w.zipfS)
	case w.zipfV < 1:
		return fmt.Errorf("zipf_v must be >= 1, got %v", w.zipfV)
	case w.duration <= 0:
		return fmt.Errorf("duration must be > 0, got %v", w.duration)
	case w.timescale < 0:
		return fmt.Errorf("timescale must be >= 0, got %v", w.timescale)
	case w.rps < 0:
		return fmt.Errorf("upstream_rps must be >= 0, got %v", w.rps)
	case w.failRate < 0 || w.failRate > 1:
		return fmt.Errorf("upstream_fail must be in [0,1], got %v", w.failRate)
	case w.latency < 0:
		return fmt.Errorf("upstream_latency must be >= 0, got %v", w.latency)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// ---- Flags ----
	var w workload
	flag.Float64Var(&w.timescale, "timescale", 60, "divide every policy TTL by this factor")

	flag.IntVar(&w.workers, "workers", 2*runtime.GOMAXPROCS(0), "number of reader goroutines")
	flag.DurationVar(&w.duration, "duration", 30*time.Second, "benchmark duration")

	flag.IntVar(&w.keys, "keys", 1_000, "keys per category (>= 1)")
	flag.Float64Var(&w.zipfS, "zipf_s", 1.1, "Zipf s > 1 (skew)")
	flag.Float64Var(&w.zipfV, "zipf_v", 1.0, "Zipf v >= 1")
	flag.Int64Var(&w.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.BoolVar(&w.warmup, "warmup", true, "populate every category before reading")

	flag.Float64Var(&w.rps, "upstream_rps", 20, "upstream fetch rate limit (0 = unlimited)")
	flag.IntVar(&w.burst, "upstream_burst", 4, "upstream burst size")
	flag.DurationVar(&w.latency, "upstream_latency", 50*time.Millisecond, "upstream fetch latency")
	flag.Float64Var(&w.failRate, "upstream_fail", 0.05, "upstream failure probability [0..1]")

	flag.StringVar(&w.pprofAddr, "pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
	flag.Parse()

	if err := run(cfg, w); err != nil {
		slog.Error("bench failed", "err", err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup so that they all fire before main exits.
func run(cfg *config.Config, w workload) error {
	if err := w.validate(); err != nil {
		return err
	}

	if err := errorreporting.Init(cfg.SentryDSN, cfg.SentryEnvironment, cfg.SentryRelease); err != nil {
		slog.Warn("sentry disabled", "err", err)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdown, err := tracing.Init(cfg.OTELEnabled, "freshcache-bench", cfg.OTELEndpoint, cfg.OTELSampleRate)
	if err != nil {
		slog.Warn("tracing disabled", "err", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	// ---- pprof server (on DefaultServeMux) ----
	if w.pprofAddr != "" {
		go func() {
			slog.Info("pprof: serving", "addr", w.pprofAddr)
			slog.Error("pprof server stopped", "err", http.ListenAndServe(w.pprofAddr, nil))
		}()
	}

	// ---- Build cache ----
	reg, err := policy.NewRegistry(scaleTable(policy.DefaultTable(), w.timescale))
	if err != nil {
		return fmt.Errorf("invalid policy table: %w", err)
	}
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pmet.New(promReg, "freshcache", "bench", nil)

	c := cache.New[string](cache.Options[string]{
		Policies:       reg,
		Disabled:       !cfg.CacheEnabled,
		Shards:         cfg.CacheShards,
		Capacity:       cfg.CacheCapacity,
		SweepInterval:  cfg.SweepInterval,
		Metrics:        metrics,
		OnRefreshError: errorreporting.RefreshFailure,
	})
	defer func() { _ = c.Close() }()
	promReg.MustRegister(pmet.NewStatsCollector(c, "freshcache", "bench", nil))

	up := newUpstream(w.rps, w.burst, w.latency, w.failRate, w.keys)
	cats := reg.Categories()
	for _, cat := range cats {
		c.RegisterCallback(cat, up.callback(c, cat))
	}

	// ---- Admin + Prometheus ----
	router := admin.NewRouter(admin.NewHandler(c, logger.WithComponent("admin")))
	router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("admin: serving", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server stopped", "err", err)
		}
	}()
	defer func() { _ = srv.Close() }()

	if w.warmup {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		res := c.RefreshAll(ctx)
		cancel()
		failed := 0
		for _, ok := range res {
			if !ok {
				failed++
			}
		}
		slog.Info("warmup done", "categories", len(res), "failed", failed, "entries", c.Len())
	}

	keysMax := uint64(w.keys - 1)
	workersN := w.workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total, fresh, stale, misses uint64
	ctx, cancel := context.WithTimeout(context.Background(), w.duration)
	defer cancel()

	start := time.Now()
	var g errgroup.Group
	for id := 0; id < workersN; id++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(w.seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, w.zipfS, w.zipfV, keysMax)

			for ctx.Err() == nil {
				cat := cats[localR.Intn(len(cats))]
				k := cat + ":" + strconv.FormatUint(localZipf.Uint64(), 10)

				atomic.AddUint64(&total, 1)
				r, ok := c.SmartGet(k, cat)
				switch {
				case !ok:
					atomic.AddUint64(&misses, 1)
				case r.Fresh:
					atomic.AddUint64(&fresh, 1)
				default:
					atomic.AddUint64(&stale, 1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = c.Wait(waitCtx)
	waitCancel()

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	freshN := atomic.LoadUint64(&fresh)
	staleN := atomic.LoadUint64(&stale)
	missesN := atomic.LoadUint64(&misses)

	pct := func(n uint64) float64 {
		if ops == 0 {
			return 0
		}
		return float64(n) / float64(ops) * 100
	}
	st := c.Stats()

	fmt.Printf("timescale=%.0f shards=%d workers=%d keys/cat=%d cats=%d dur=%v seed=%d\n",
		w.timescale, cfg.CacheShards, workersN, w.keys, len(cats), elapsed, w.seed)
	fmt.Printf("reads=%d (%.0f ops/s)\n", ops, float64(ops)/elapsed.Seconds())
	fmt.Printf("fresh=%.2f%%  stale=%.2f%%  miss=%.2f%%\n", pct(freshN), pct(staleN), pct(missesN))
	fmt.Printf("upstream fetches=%d failures=%d\n", up.fetches.Load(), up.failures.Load())
	fmt.Printf("resident=%d fresh=%d stale=%d expired=%d\n",
		st.TotalKeys, st.FreshKeys, st.StaleKeys, st.ExpiredKeys)
	return nil
}

// scaleTable shrinks every window by factor so that minutes-long policies
// play out within a short run.
func scaleTable(tbl map[string]policy.Policy, factor float64) map[string]policy.Policy {
	if factor <= 0 || factor == 1 {
		return tbl
	}
	for cat, p := range tbl {
		p.TTL = time.Duration(float64(p.TTL) / factor)
		p.StaleTTL = time.Duration(float64(p.StaleTTL) / factor)
		tbl[cat] = p
	}
	return tbl
}
