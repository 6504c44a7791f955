// Command authdash-loadtest drives one shared goAuthClient.Client from many
// goroutines against the in-process fake API and reports latency percentiles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/internal/apitest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "requests per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "authdash-loadtest", "session key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	srv, err := apitest.NewServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start fake API: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()
	if _, err := srv.AddUser("load", "load@example.com", "load-pw"); err != nil {
		fmt.Fprintf(os.Stderr, "seed user: %v\n", err)
		os.Exit(1)
	}

	// Sized for the login event plus one invalidation per expiry worker.
	events := goAuthClient.NewChannelSink(*concurrency + 8)
	client, err := goAuthClient.New().
		WithBaseURL(srv.URL).
		WithRedisSessionStore(rdb, *prefix).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		WithEventSink(events).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	res, err := client.Login(ctx, "load", "load-pw")
	if err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}
	if err := client.EstablishSession(ctx, res.AccessToken); err != nil {
		fmt.Fprintf(os.Stderr, "establish session: %v\n", err)
		os.Exit(1)
	}

	probeStats := runPhase(*ops, *concurrency, func() error {
		_, err := client.GetCurrentUser(ctx)
		return err
	})
	dashboardStats := runPhase(*ops, *concurrency, func() error {
		_, err := client.GetDashboard(ctx)
		return err
	})

	// Expiry: every in-flight request after revocation should see 401.
	if err := srv.Revoke(res.AccessToken); err != nil {
		fmt.Fprintf(os.Stderr, "revoke: %v\n", err)
		os.Exit(1)
	}
	var unauthorized int64
	expiryStats := runPhase(*concurrency, *concurrency, func() error {
		_, err := client.GetCurrentUser(ctx)
		if errors.Is(err, goAuthClient.ErrUnauthorized) {
			atomic.AddInt64(&unauthorized, 1)
			return nil
		}
		return err
	})
	hasSession, _ := client.HasSession(ctx)
	invalidations := countEvents(events, goAuthClient.EventSessionInvalidated)

	snap := client.MetricsSnapshot()
	fmt.Println("---- results ----")
	printStats("probe", probeStats)
	printStats("dashboard", dashboardStats)
	printStats("expiry", expiryStats)
	fmt.Printf("expiry: unauthorized=%d invalidation_events=%d session_left=%t\n",
		atomic.LoadInt64(&unauthorized), invalidations, hasSession)
	fmt.Printf("metrics: sent=%d success=%d failure=%d unauthorized=%d\n",
		snap.Counters[goAuthClient.MetricRequestSent],
		snap.Counters[goAuthClient.MetricRequestSuccess],
		snap.Counters[goAuthClient.MetricRequestFailure],
		snap.Counters[goAuthClient.MetricUnauthorized],
	)
}

// countEvents drains whatever sink has buffered and counts events of type t.
func countEvents(sink *goAuthClient.ChannelSink, t goAuthClient.EventType) int {
	n := 0
	for {
		select {
		case e := <-sink.Events():
			if e.Type == t {
				n++
			}
		default:
			return n
		}
	}
}

// runPhase spreads ops calls of fn across concurrency workers.
func runPhase(ops, concurrency int, fn func() error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := fn()
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
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
