package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vertixhq/vertixauth"
	"github.com/vertixhq/vertixauth/metrics/export/prometheus"
	"github.com/vertixhq/vertixauth/session"
)

func main() {
	var (
		clients     = flag.Int("clients", 256, "number of independent clients, one persistence key each")
		ops         = flag.Int("ops", 100000, "operations per phase")
		contenders  = flag.Int("contenders", 32, "goroutines racing on one shared store in the contention phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "vertix-load", "redis key prefix")
		showMetrics = flag.Bool("metrics", false, "print the shared store's metrics in Prometheus format")
	)
	flag.Parse()

	if *clients <= 0 || *ops <= 0 || *contenders <= 0 {
		fmt.Fprintln(os.Stderr, "clients, ops, and contenders must be > 0")
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	backend := session.NewRedisBackend(client, *prefix, 0)
	if rtt, err := backend.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "redis unreachable: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Printf("redis rtt %s\n", rtt.Round(time.Microsecond))
	}

	fixtures := vertixauth.MockEntries()
	auth := vertixauth.MockAuthenticator()

	fmt.Printf("logging in %d clients...\n", *clients)
	startSeed := time.Now()
	for i := 0; i < *clients; i++ {
		store := mustStore(clientKey(i), backend, auth, logger)
		f := fixtures[i%len(fixtures)]
		if _, err := store.Login(ctx, f.Identity.Email, f.Password); err != nil {
			fmt.Fprintf(os.Stderr, "seed login failed: %v\n", err)
			os.Exit(1)
		}
		store.Close()
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	restoreStats := runRestorePhase(ctx, backend, auth, logger, *clients, *ops)
	loginStats := runLoginPhase(ctx, backend, auth, logger, *clients, *ops)

	shared := mustStore("shared", backend, auth, logger)
	defer shared.Close()
	contentionStats, consistent := runContentionPhase(ctx, shared, backend, *contenders, *ops)

	fmt.Println("---- results ----")
	printStats("restore", restoreStats)
	printStats("login", loginStats)
	printStats("contention", contentionStats)
	fmt.Printf("shared store consistent with backend: %t\n", consistent)

	if *showMetrics {
		fmt.Print(prometheus.NewPrometheusExporter(shared).Render())
	}
	if !consistent {
		os.Exit(1)
	}
}

func clientKey(i int) string {
	return fmt.Sprintf("user-%d", i)
}

func mustStore(key string, backend session.Backend, auth vertixauth.Authenticator, logger *slog.Logger) *vertixauth.SessionStore {
	cfg := vertixauth.DefaultConfig()
	cfg.Persistence.Key = key
	cfg.Persistence.Required = true
	cfg.Metrics.EnableLatencyHistograms = true

	store, err := vertixauth.New().
		WithConfig(cfg).
		WithAuthenticator(auth).
		WithBackend(backend).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build store: %v\n", err)
		os.Exit(1)
	}
	return store
}

// runRestorePhase opens a fresh store per operation, as a client start does.
func runRestorePhase(ctx context.Context, backend session.Backend, auth vertixauth.Authenticator, logger *slog.Logger, clients, ops int) phaseStats {
	return runPhase(clients, ops, 7919, func(r *rand.Rand) error {
		store := mustStore(clientKey(r.Intn(clients)), backend, auth, logger)
		defer store.Close()
		if err := store.Restore(ctx); err != nil {
			return err
		}
		if store.State() != vertixauth.Authenticated {
			return errors.New("restore found no session")
		}
		return nil
	})
}

// runLoginPhase gives each worker its own store and cycles logins on it.
func runLoginPhase(ctx context.Context, backend session.Backend, auth vertixauth.Authenticator, logger *slog.Logger, clients, ops int) phaseStats {
	fixtures := vertixauth.MockEntries()
	stores := make([]*vertixauth.SessionStore, clients)
	for i := range stores {
		stores[i] = mustStore(clientKey(i), backend, auth, logger)
	}
	defer func() {
		for _, s := range stores {
			s.Close()
		}
	}()

	var next int64
	return runPhase(clients, ops, 6151, func(r *rand.Rand) error {
		store := stores[int(atomic.AddInt64(&next, 1))%clients]
		f := fixtures[r.Intn(len(fixtures))]
		_, err := store.Login(ctx, f.Identity.Email, f.Password)
		if vertixauth.Classify(err) == vertixauth.FailureCanceled {
			return nil
		}
		return err
	})
}

// runContentionPhase races login, logout and restore on one store, then
// checks that what is persisted matches what the store holds.
func runContentionPhase(ctx context.Context, store *vertixauth.SessionStore, backend session.Backend, workers, ops int) (phaseStats, bool) {
	fixtures := vertixauth.MockEntries()
	stats := runPhase(workers, ops, 4099, func(r *rand.Rand) error {
		var err error
		switch r.Intn(3) {
		case 0:
			f := fixtures[r.Intn(len(fixtures))]
			_, err = store.Login(ctx, f.Identity.Email, f.Password)
		case 1:
			err = store.Logout(ctx)
		default:
			err = store.Restore(ctx)
		}
		if vertixauth.Classify(err) == vertixauth.FailureCanceled {
			return nil
		}
		return err
	})

	adapter, err := session.NewAdapter(backend, session.AdapterConfig{Key: "shared"})
	if err != nil {
		return stats, false
	}
	persisted, err := adapter.Load(ctx)
	if err != nil {
		return stats, false
	}
	current, _ := store.Current()
	return stats, current.Equal(persisted)
}

func runPhase(workers, ops int, seed int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
