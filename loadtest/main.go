package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"auditorium/client"
	"auditorium/internal/metrics"
	v1 "auditorium/pkg/api/v1"
	"auditorium/pkg/logger"
	"auditorium/pkg/tokenstore"

	"github.com/prometheus/client_golang/prometheus"
)

// Configuration
var (
	baseURL  = flag.String("url", "http://localhost:8080", "Dev server base URL")
	email    = flag.String("email", "admin@auditorium.local", "Login email")
	password = flag.String("password", "admin12345", "Login password")
	totalVUs = flag.Int("c", 50, "Concurrent requests per round")
	rounds   = flag.Int("rounds", 5, "Rounds of forced token expiry")
)

type result struct {
	succeeded int64
	failed    int64
	refreshes int64
	expired   int64
	elapsed   time.Duration
}

// countingObserver tallies refresh calls for one run and forwards
// everything to the prometheus counters.
type countingObserver struct {
	metrics.ClientObserver
	refreshes *int64
}

func (o countingObserver) RecordRefresh(success bool) {
	atomic.AddInt64(o.refreshes, 1)
	o.ClientObserver.RecordRefresh(success)
}

func main() {
	flag.Parse()
	logger.InitLogger("cli")

	fmt.Printf("🚀 Starting refresh storm\n")
	fmt.Printf("   Target: %s\n", *baseURL)
	fmt.Printf("   VUs: %d x %d rounds\n", *totalVUs, *rounds)

	independent := run(false)
	coalesced := run(true)

	fmt.Println("\n📊 Summary")
	report("independent", independent)
	report("coalesced", coalesced)

	fmt.Println("\n✅ Done. Client counters:")
	printCounters()
}

func run(coalesce bool) *result {
	res := &result{}
	opts := []client.Option{
		client.WithObserver(countingObserver{ClientObserver: metrics.NewPrometheusObserver(), refreshes: &res.refreshes}),
		client.WithSessionExpiredHandler(func(error) { atomic.AddInt64(&res.expired, 1) }),
	}
	if coalesce {
		opts = append(opts, client.WithRefreshCoalescing())
	}

	store := tokenstore.NewMemory()
	c := client.New(*baseURL, store, opts...)
	ctx := context.Background()
	start := time.Now()

	for round := 1; round <= *rounds; round++ {
		if !store.IsAuthenticated(ctx) {
			if _, err := c.Auth.Login(ctx, v1.LoginRequest{Email: *email, Password: *password}); err != nil {
				fmt.Printf("Login failed: %v\n", err)
				os.Exit(1)
			}
		}
		// Invalidate only the access token so every VU hits a 401 at once.
		if err := store.SetAccessToken(ctx, "expired-"+time.Now().Format(time.RFC3339Nano)); err != nil {
			fmt.Printf("Store error: %v\n", err)
			os.Exit(1)
		}

		var wg sync.WaitGroup
		for i := 0; i < *totalVUs; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.Users.Me(ctx); err != nil {
					atomic.AddInt64(&res.failed, 1)
					return
				}
				atomic.AddInt64(&res.succeeded, 1)
			}()
		}
		wg.Wait()

		fmt.Printf("[coalesce=%v round %d] OK: %d | Failed: %d | Refreshes: %d | Expired: %d\n",
			coalesce, round,
			atomic.LoadInt64(&res.succeeded), atomic.LoadInt64(&res.failed),
			atomic.LoadInt64(&res.refreshes), atomic.LoadInt64(&res.expired))
	}
	res.elapsed = time.Since(start)
	return res
}

func report(name string, r *result) {
	fmt.Printf("   %-12s %v | OK: %d | Failed: %d | Refresh calls: %d | Sessions expired: %d\n",
		name, r.elapsed.Round(time.Millisecond), r.succeeded, r.failed, r.refreshes, r.expired)
}

func printCounters() {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		fmt.Printf("Gather error: %v\n", err)
		return
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "auditorium_client_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			fmt.Printf("   %s{%s} %.0f\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
