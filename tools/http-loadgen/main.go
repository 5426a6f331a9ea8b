// http-loadgen is a tiny, dependency-free HTTP load generator for a running
// Tribbler front end. It reuses HTTP connections (keep-alive) and supports
// concurrency so demo scripts run fast without relying on external tools.
//
// Modes:
//   - post: POST /api/post for users drawn round-robin from a fixed pool
//   - home: POST /api/list-home for one user (read-heavy timeline load)
//   - mixed: 1 post for every read_every-1 home reads
//
// Usage examples:
//
//	http-loadgen -base=http://127.0.0.1:8080 -mode=post -users=20 -n=5000 -c=16
//	http-loadgen -base=http://127.0.0.1:8080 -mode=home -user=loaduser0 -n=8000 -c=16
//
// The user pool is loaduser0..loaduser<users-1>; pass -signup to create the
// pool (idempotent errors from existing users are ignored).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type modeType string

const (
	modePost  modeType = "post"
	modeHome  modeType = "home"
	modeMixed modeType = "mixed"
)

func main() {
	var (
		base      = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host, e.g. http://127.0.0.1:8080")
		modeS     = flag.String("mode", string(modePost), "Mode: post|home|mixed")
		users     = flag.Int("users", 20, "Size of the loaduserN pool")
		user      = flag.String("user", "loaduser0", "User for home mode")
		signup    = flag.Bool("signup", false, "Sign up the user pool before generating load")
		N         = flag.Int("n", 5000, "Total requests to send")
		conc      = flag.Int("c", 8, "Number of concurrent workers")
		readEvery = flag.Int("read_every", 5, "In mixed mode, period of one post among reads (minimum 2)")
		// Timeouts & transport tuning
		timeout    = flag.Duration("timeout", 60*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modePost && m != modeHome && m != modeMixed {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want post|home|mixed)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 || *users <= 0 {
		fmt.Fprintln(os.Stderr, "-n, -c, and -users must be > 0")
		os.Exit(2)
	}
	if *readEvery < 2 {
		*readEvery = 2
	}

	baseURL := strings.TrimRight(*base, "/")

	// Configure HTTP client with connection reuse
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	call := func(path string, body any) error {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		// Drain and close body to enable connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil
	}

	poolUser := func(i int) string { return fmt.Sprintf("loaduser%d", i%*users) }

	if *signup {
		for i := 0; i < *users; i++ {
			// Existing users answer with an in-envelope error; only
			// transport failures abort.
			if err := call("/api/add-user", map[string]string{"user": poolUser(i)}); err != nil {
				fmt.Fprintf(os.Stderr, "sign up %s: %v\n", poolUser(i), err)
				os.Exit(1)
			}
		}
	}

	start := time.Now()
	var errs int64

	worker := func(id, count int) {
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var err error
			doPost := m == modePost || (m == modeMixed && (i+id)%*readEvery == 0)
			if doPost {
				who := poolUser(i + id)
				err = call("/api/post", map[string]any{
					"who":     who,
					"message": fmt.Sprintf("load %d from worker %d", i, id),
					"clock":   0,
				})
			} else {
				who := *user
				if m == modeMixed {
					who = poolUser(i + id)
				}
				err = call("/api/list-home", map[string]string{"user": who})
			}
			if err != nil {
				atomic.AddInt64(&errs, 1)
				// Brief backoff on errors to avoid hot spinning
				time.Sleep(200 * time.Microsecond)
			}
		}
	}

	// Split N across conc workers
	per := *N / *conc
	rem := *N - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n int) {
			defer wg.Done()
			worker(id, n)
		}(w, count)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*N) / elapsed.Seconds()
	fmt.Printf("LoadGen: mode=%s N=%d c=%d go=%d Errors=%d Duration=%s Throughput=%.0f req/s\n",
		m, *N, *conc, runtime.GOMAXPROCS(0), atomic.LoadInt64(&errs), elapsed.Truncate(time.Millisecond), ops)
}
