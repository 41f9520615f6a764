package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-sovereignty/internal/api/shared/errors"
	"github.com/feral-file/ff-sovereignty/internal/domain"
)

const (
	defaultAPIURL = "http://localhost:8080"
	outcomeOK     = "ACCEPTED"
	outcomeError  = "TRANSPORT_ERROR"
)

type Config struct {
	APIURL         string
	APIKey         string
	TerritoryID    string
	AuctionID      string        // Existing auction to bid on; empty opens a new one on TerritoryID
	Bidders        int           // Number of distinct bidder identities
	BidsPerBidder  int           // Bids each bidder attempts
	Concurrency    int           // Number of concurrent workers
	MaxOverbid     int64         // Upper bound of the random amount added on top of the minimum next bid
	RequestTimeout time.Duration // Timeout for each API request
	BidderPrefix   string
	OutputFile     string // Output markdown file path (optional)
	Debug          bool
}

// RunStats collects the outcome of a bid storm against one auction
type RunStats struct {
	AuctionID       string
	TerritoryID     string
	StartTime       time.Time
	EndTime         time.Time
	Attempts        int
	Outcomes        map[string]int // ACCEPTED, TRANSPORT_ERROR or the API error code
	Latencies       []time.Duration
	InitialBidCount int64
	Final           *dto.AuctionResponse
}

func (s *RunStats) accepted() int {
	return s.Outcomes[outcomeOK]
}

// bidCountConsistent reports whether the auction recorded exactly the bids that were accepted
func (s *RunStats) bidCountConsistent() bool {
	if s.Final == nil {
		return false
	}
	return s.Final.BidCount-s.InitialBidCount == int64(s.accepted())
}

func main() {
	cfg := parseFlags()

	if cfg.AuctionID == "" && cfg.TerritoryID == "" {
		fmt.Println("Error: either auction-id or territory-id is required")
		flag.Usage()
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		fmt.Println("Error: api-key is required")
		flag.Usage()
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := newAPIClient(cfg)

	a, err := resolveAuction(ctx, client, cfg)
	if err != nil {
		fmt.Printf("Error preparing auction: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bidding on auction %s (territory %s) at %s\n", a.ID, a.TerritoryID, cfg.APIURL)
	fmt.Printf("%d bidders x %d bids, concurrency %d, starting at min next bid %d\n\n",
		cfg.Bidders, cfg.BidsPerBidder, cfg.Concurrency, a.MinNextBid)

	stats := runBidStorm(ctx, client, cfg, a)

	// The final read uses a fresh context so interrupted runs still report
	finalCtx, finalCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer finalCancel()
	final, err := client.getAuction(finalCtx, a.ID)
	if err != nil {
		fmt.Printf("\n⚠️  Warning: failed to read final auction state: %v\n", err)
	} else {
		stats.Final = final
	}

	title := "BENCHMARK RESULTS"
	if ctx.Err() != nil {
		title = "INTERRUPTED - PARTIAL RESULTS"
	}
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 80))
	printRunStats(stats)

	if cfg.OutputFile != "" {
		if err := writeMarkdownReport(cfg.OutputFile, stats); err != nil {
			fmt.Printf("\n⚠️  Warning: Failed to write markdown file: %v\n", err)
		} else {
			fmt.Printf("\n✓ Report written to: %s\n", cfg.OutputFile)
		}
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.APIURL, "api-url", defaultAPIURL, "Sovereignty API base URL")
	flag.StringVar(&cfg.APIKey, "api-key", "", "API key used for every request (required)")
	flag.StringVar(&cfg.TerritoryID, "territory-id", "", "Territory to open a STANDARD auction on")
	flag.StringVar(&cfg.AuctionID, "auction-id", "", "Existing active auction to bid on")
	flag.StringVar(&cfg.BidderPrefix, "bidder-prefix", "bench-bidder", "Prefix for generated bidder IDs")
	flag.StringVar(&cfg.OutputFile, "output", "", "Output markdown file path (optional)")
	flag.BoolVar(&cfg.Debug, "debug", false, "Print every bid outcome")
	flag.IntVar(&cfg.Bidders, "bidders", 10, "Number of distinct bidders (default: 10)")
	flag.IntVar(&cfg.BidsPerBidder, "bids-per-bidder", 20, "Bids attempted by each bidder (default: 20)")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "Number of concurrent workers (default: 8)")
	flag.Int64Var(&cfg.MaxOverbid, "max-overbid", 5, "Random amount added on top of the minimum next bid (default: 5)")

	var requestTimeoutSeconds int
	flag.IntVar(&requestTimeoutSeconds, "request-timeout", 10, "Timeout for each API request in seconds (default: 10)")

	configFile := flag.String("config", "", "Path to config file (optional)")
	saveConfig := flag.Bool("save-config", false, "Save api-url and api-key to the default config path")

	flag.Parse()

	cfg.RequestTimeout = time.Duration(requestTimeoutSeconds) * time.Second

	if cfg.Bidders <= 0 {
		cfg.Bidders = 10
	}
	if cfg.BidsPerBidder <= 0 {
		cfg.BidsPerBidder = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Concurrency > 64 {
		cfg.Concurrency = 64 // Cap at 64 to avoid exhausting local sockets
	}
	if cfg.MaxOverbid < 0 {
		cfg.MaxOverbid = 0
	}

	path := *configFile
	if path == "" {
		path = GetDefaultConfigPath()
	}
	if fileCfg, err := LoadConfig(path); err == nil {
		// Override with file values if not set via flags
		if cfg.APIURL == defaultAPIURL && fileCfg.APIURL != "" {
			cfg.APIURL = fileCfg.APIURL
		}
		if cfg.APIKey == "" {
			cfg.APIKey = fileCfg.APIKey
		}
	} else if *configFile != "" {
		fmt.Printf("Warning: failed to load config file: %v\n", err)
	}

	if *saveConfig {
		if err := SaveConfig(GetDefaultConfigPath(), &BenchmarkConfig{APIURL: cfg.APIURL, APIKey: cfg.APIKey}); err != nil {
			fmt.Printf("Warning: failed to save config file: %v\n", err)
		}
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg
}

// apiClient talks to the REST API without retries so every status reaches the report
type apiClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func newAPIClient(cfg *Config) *apiClient {
	return &apiClient{
		baseURL: cfg.APIURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.RequestTimeout,
		http: &http.Client{
			Transport: &http.Transport{MaxIdleConnsPerHost: cfg.Concurrency},
		},
	}
}

func (c *apiClient) do(ctx context.Context, method, path, actingUser string, body interface{}) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if actingUser != "" {
		req.Header.Set(middleware.ACTING_USER_HEADER, actingUser)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

func (c *apiClient) getAuction(ctx context.Context, id string) (*dto.AuctionResponse, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/v1/auctions/"+id, "", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
	var a dto.AuctionResponse
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *apiClient) createAuction(ctx context.Context, territoryID string) (*dto.AuctionResponse, error) {
	req := dto.CreateAuctionRequest{Type: domain.AuctionTypeStandard}
	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/territories/"+territoryID+"/auctions", "", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
	var a dto.AuctionResponse
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func resolveAuction(ctx context.Context, client *apiClient, cfg *Config) (*dto.AuctionResponse, error) {
	if cfg.AuctionID == "" {
		return client.createAuction(ctx, cfg.TerritoryID)
	}

	a, err := client.getAuction(ctx, cfg.AuctionID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AuctionStatusActive {
		return nil, fmt.Errorf("auction %s is %s", a.ID, a.Status)
	}
	return a, nil
}

// runBidStorm fires every bid through a worker pool. Bidders chase the highest
// minimum next bid seen so far, so most rejections come from genuine contention.
func runBidStorm(ctx context.Context, client *apiClient, cfg *Config, a *dto.AuctionResponse) *RunStats {
	stats := &RunStats{
		AuctionID:       a.ID,
		TerritoryID:     a.TerritoryID,
		StartTime:       time.Now(),
		Outcomes:        make(map[string]int),
		InitialBidCount: a.BidCount,
	}

	var minNext atomic.Int64
	minNext.Store(a.MinNextBid)
	raise := func(v int64) {
		for {
			cur := minNext.Load()
			if v <= cur || minNext.CompareAndSwap(cur, v) {
				return
			}
		}
	}

	var mu sync.Mutex
	record := func(outcome string, latency time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		stats.Attempts++
		stats.Outcomes[outcome]++
		stats.Latencies = append(stats.Latencies, latency)
	}

	total := cfg.Bidders * cfg.BidsPerBidder
	pool := pond.NewPool(
		cfg.Concurrency,
		pond.WithQueueSize(total),
		pond.WithContext(ctx),
	)

	for i := range total {
		bidder := fmt.Sprintf("%s-%03d", cfg.BidderPrefix, i%cfg.Bidders)
		pool.Submit(func() {
			amount := minNext.Load() + rand.Int64N(cfg.MaxOverbid+1)
			req := dto.PlaceBidRequest{Amount: amount}

			start := time.Now()
			status, body, err := client.do(ctx, http.MethodPost, "/api/v1/auctions/"+a.ID+"/bids", bidder, req)
			latency := time.Since(start)

			outcome := classify(status, body, err, raise)
			record(outcome, latency)
			if cfg.Debug {
				fmt.Printf("%s bid %d -> %s (%s)\n", bidder, amount, outcome, formatDuration(latency))
			}
		})
	}
	pool.StopAndWait()

	stats.EndTime = time.Now()
	return stats
}

// classify maps a bid response to an outcome and feeds any minimum next bid back to the bidders
func classify(status int, body []byte, err error, raise func(int64)) string {
	if err != nil {
		return outcomeError
	}

	if status == http.StatusOK {
		var a dto.AuctionResponse
		if json.Unmarshal(body, &a) == nil {
			raise(a.MinNextBid)
		}
		return outcomeOK
	}

	var apiErr apierrors.APIError
	if json.Unmarshal(body, &apiErr) != nil || apiErr.Code == "" {
		return fmt.Sprintf("HTTP_%d", status)
	}
	if apiErr.MinNextBid != nil {
		raise(*apiErr.MinNextBid)
	}
	return string(apiErr.Code)
}

// percentile returns the p-th percentile of sorted latencies
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100)
	return sorted[idx]
}

func sortedLatencies(stats *RunStats) []time.Duration {
	sorted := make([]time.Duration, len(stats.Latencies))
	copy(sorted, stats.Latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// sortedOutcomes returns outcome names, accepted first then by count
func sortedOutcomes(stats *RunStats) []string {
	names := make([]string, 0, len(stats.Outcomes))
	for name := range stats.Outcomes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == outcomeOK || names[j] == outcomeOK {
			return names[i] == outcomeOK
		}
		if stats.Outcomes[names[i]] != stats.Outcomes[names[j]] {
			return stats.Outcomes[names[i]] > stats.Outcomes[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func printRunStats(stats *RunStats) {
	elapsed := stats.EndTime.Sub(stats.StartTime)
	rejected := stats.Attempts - stats.accepted() - stats.Outcomes[outcomeError]

	fmt.Printf("\n%s Auction: %s\n", statusEmoji(stats.accepted(), stats.Outcomes[outcomeError], 0), stats.AuctionID)
	fmt.Printf("   Territory: %s\n", stats.TerritoryID)
	fmt.Printf("   Duration:  %s\n", formatDuration(elapsed))
	fmt.Printf("   Attempts:  %d (%s)\n", stats.Attempts, formatRate(stats.Attempts, elapsed))
	fmt.Printf("   Accepted:  %d (%s)\n", stats.accepted(), percentageString(stats.accepted(), stats.Attempts))
	fmt.Printf("   Rejected:  %d (%s)\n", rejected, percentageString(rejected, stats.Attempts))

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Println("OUTCOMES")
	fmt.Println(strings.Repeat("-", 80))
	for _, name := range sortedOutcomes(stats) {
		fmt.Printf("   %-28s %6d  %s\n", name, stats.Outcomes[name], percentageString(stats.Outcomes[name], stats.Attempts))
	}

	sorted := sortedLatencies(stats)
	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Println("LATENCY")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("   p50: %s  p95: %s  p99: %s  max: %s\n",
		formatDuration(percentile(sorted, 50)),
		formatDuration(percentile(sorted, 95)),
		formatDuration(percentile(sorted, 99)),
		formatDuration(percentile(sorted, 100)))

	if stats.Final == nil {
		return
	}
	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Println("FINAL STATE")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("   Status:        %s\n", stats.Final.Status)
	fmt.Printf("   Current bid:   %d\n", stats.Final.CurrentBid)
	fmt.Printf("   Min next bid:  %d\n", stats.Final.MinNextBid)
	fmt.Printf("   Bids recorded: %d\n", stats.Final.BidCount-stats.InitialBidCount)
	if stats.bidCountConsistent() {
		fmt.Println("   ✅ Recorded bids match accepted responses")
	} else {
		fmt.Println("   ❌ Recorded bids differ from accepted responses")
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// writeMarkdownReport writes a markdown report of the run
func writeMarkdownReport(filepath string, stats *RunStats) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	elapsed := stats.EndTime.Sub(stats.StartTime)

	_, _ = fmt.Fprintf(file, "# Bid Contention Benchmark Report\n\n")
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	_, _ = fmt.Fprintf(file, "## Run\n\n")
	_, _ = fmt.Fprintf(file, "| Property | Value |\n")
	_, _ = fmt.Fprintf(file, "|----------|-------|\n")
	_, _ = fmt.Fprintf(file, "| **Auction ID** | `%s` |\n", stats.AuctionID)
	_, _ = fmt.Fprintf(file, "| **Territory ID** | `%s` |\n", stats.TerritoryID)
	_, _ = fmt.Fprintf(file, "| **Start Time** | %s |\n", stats.StartTime.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(file, "| **Duration** | %s |\n", formatDuration(elapsed))
	_, _ = fmt.Fprintf(file, "| **Attempts** | %d |\n", stats.Attempts)
	_, _ = fmt.Fprintf(file, "| **Throughput** | %s |\n", formatRate(stats.Attempts, elapsed))
	_, _ = fmt.Fprintf(file, "\n")

	_, _ = fmt.Fprintf(file, "## Outcomes\n\n")
	_, _ = fmt.Fprintf(file, "| Outcome | Count | Share |\n")
	_, _ = fmt.Fprintf(file, "|---------|-------|-------|\n")
	for _, name := range sortedOutcomes(stats) {
		_, _ = fmt.Fprintf(file, "| %s | %d | %s |\n", name, stats.Outcomes[name], percentageString(stats.Outcomes[name], stats.Attempts))
	}
	_, _ = fmt.Fprintf(file, "\n")

	sorted := sortedLatencies(stats)
	_, _ = fmt.Fprintf(file, "## Latency\n\n")
	_, _ = fmt.Fprintf(file, "| p50 | p95 | p99 | max |\n")
	_, _ = fmt.Fprintf(file, "|-----|-----|-----|-----|\n")
	_, _ = fmt.Fprintf(file, "| %s | %s | %s | %s |\n\n",
		formatDuration(percentile(sorted, 50)),
		formatDuration(percentile(sorted, 95)),
		formatDuration(percentile(sorted, 99)),
		formatDuration(percentile(sorted, 100)))

	if stats.Final == nil {
		_, _ = fmt.Fprintf(file, "*Final auction state unavailable.*\n")
		return nil
	}

	emoji := statusEmoji(1, 0, 0)
	if !stats.bidCountConsistent() {
		emoji = statusEmoji(0, 1, 0)
	}
	_, _ = fmt.Fprintf(file, "## %s Final State\n\n", emoji)
	_, _ = fmt.Fprintf(file, "| Property | Value |\n")
	_, _ = fmt.Fprintf(file, "|----------|-------|\n")
	_, _ = fmt.Fprintf(file, "| **Status** | %s |\n", stats.Final.Status)
	_, _ = fmt.Fprintf(file, "| **Current Bid** | %d |\n", stats.Final.CurrentBid)
	_, _ = fmt.Fprintf(file, "| **Min Next Bid** | %d |\n", stats.Final.MinNextBid)
	_, _ = fmt.Fprintf(file, "| **Bids Recorded** | %d |\n", stats.Final.BidCount-stats.InitialBidCount)
	_, _ = fmt.Fprintf(file, "| **Accepted Responses** | %d |\n", stats.accepted())
	if stats.Final.HighestBidderID != nil {
		_, _ = fmt.Fprintf(file, "| **Highest Bidder** | `%s` |\n", *stats.Final.HighestBidderID)
	}

	return nil
}
