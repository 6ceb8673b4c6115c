package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 20
	testDuration = 10 * time.Second
	numPeople    = 300
)

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fabio", "Gabriela", "Hugo"}
	lastNames  = []string{"Souza", "Lima", "Pereira", "Costa", "Almeida", "Rocha"}
	locations  = []string{"Praca Central", "Rua das Flores", "Terminal Norte", "Avenida Brasil", "Feira Livre"}
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== approachlog load test ===")
	fmt.Printf("Workers: %d | Duration: %s | People: %d\n\n", numWorkers, testDuration, numPeople)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Seeding approaches (POST /approaches) ---")
	runPhase(testDuration, doCreate)

	fmt.Println("\n--- Phase 2: Mixed load (40% POST, 60% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doCreate(rng)
		case r < 0.60:
			return doSearch(rng)
		case r < 0.80:
			return doPeople(rng)
		case r < 0.90:
			return doRelated(rng)
		default:
			return doList()
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load (5% POST, 95% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doCreate(rng)
		case r < 0.45:
			return doSearch(rng)
		case r < 0.75:
			return doPeople(rng)
		case r < 0.90:
			return doRelated(rng)
		default:
			return doList()
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		fmt.Println("  no requests completed")
		return
	}
	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

// person returns a deterministic identity for index n so repeated approaches
// of the same person share an id and documents.
func person(n int) map[string]interface{} {
	return map[string]interface{}{
		"id":         fmt.Sprintf("load-p%d", n),
		"name":       fmt.Sprintf("%s %s %d", firstNames[n%len(firstNames)], lastNames[n%len(lastNames)], n),
		"motherName": fmt.Sprintf("Maria %s", lastNames[(n+1)%len(lastNames)]),
		"rg":         fmt.Sprintf("%09d", n),
		"address":    map[string]string{"street": locations[n%len(locations)]},
	}
}

func doCreate(rng *rand.Rand) result {
	people := []interface{}{person(rng.Intn(numPeople))}
	for i := rng.Intn(3); i > 0; i-- {
		people = append(people, person(rng.Intn(numPeople)))
	}
	body := map[string]interface{}{
		"date":         time.Now().UTC().Add(-time.Duration(rng.Intn(720)) * time.Hour).Format(time.RFC3339),
		"location":     locations[rng.Intn(len(locations))],
		"people":       people,
		"observations": "load test",
	}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/approaches", "application/json", bytes.NewReader(data))
	return finish("POST /approaches", http.StatusCreated, start, resp, err)
}

func doSearch(rng *rand.Rand) result {
	q := url.QueryEscape(firstNames[rng.Intn(len(firstNames))])
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/search?q=" + q)
	return finish("GET /search", http.StatusOK, start, resp, err)
}

func doPeople(rng *rand.Rand) result {
	q := url.QueryEscape(lastNames[rng.Intn(len(lastNames))])
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/people?q=" + q)
	return finish("GET /people", http.StatusOK, start, resp, err)
}

func doRelated(rng *rand.Rand) result {
	id := url.QueryEscape(fmt.Sprintf("load-p%d", rng.Intn(numPeople)))
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/related?person=" + id)
	return finish("GET /related", http.StatusOK, start, resp, err)
}

func doList() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/approaches")
	return finish("GET /approaches", http.StatusOK, start, resp, err)
}

func finish(endpoint string, want int, start time.Time, resp *http.Response, err error) result {
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != want}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
