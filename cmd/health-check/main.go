// Package main provides a standalone health check command for Cardápio.
// It is meant for container HEALTHCHECK instructions and monitoring scripts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/cardapio/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL          string
	Timeout      time.Duration
	Verbose      bool
	OutputFormat string
	AllowDegrade bool
	RetryCount   int
	RetryDelay   time.Duration
}

// report mirrors the JSON served by /health
type report struct {
	Status  healthcheck.Status `json:"status"`
	Version string             `json:"version"`
	Checks  []struct {
		Name    string             `json:"name"`
		Status  healthcheck.Status `json:"status"`
		Message string             `json:"message"`
	} `json:"checks"`
}

func main() {
	os.Exit(run(parseFlags(), os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.URL, "url", defaultURL(), "Health check endpoint URL")
	flag.DurationVar(&config.Timeout, "timeout", 5*time.Second, "Request timeout")
	flag.BoolVar(&config.Verbose, "verbose", false, "Print every check")
	flag.StringVar(&config.OutputFormat, "format", "text", "Output format: text, json")
	flag.BoolVar(&config.AllowDegrade, "allow-degraded", true, "Treat a degraded service as passing")
	flag.IntVar(&config.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&config.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	flag.Parse()
	return config
}

func defaultURL() string {
	if url := os.Getenv("HEALTH_CHECK_URL"); url != "" {
		return url
	}
	return "http://localhost:8080/health"
}

// run probes the endpoint and returns the process exit code
func run(config Config, out io.Writer) int {
	client := &http.Client{Timeout: config.Timeout}

	var lastErr error
	for attempt := 0; attempt <= config.RetryCount; attempt++ {
		if attempt > 0 {
			if config.Verbose {
				fmt.Fprintf(out, "Retrying in %v... (attempt %d/%d)\n", config.RetryDelay, attempt, config.RetryCount)
			}
			time.Sleep(config.RetryDelay)
		}

		rep, err := probe(context.Background(), client, config.URL)
		if err != nil {
			lastErr = err
			if config.Verbose {
				fmt.Fprintf(out, "Request failed: %v\n", err)
			}
			continue
		}

		output(out, rep, config)
		return exitCode(rep.Status, config.AllowDegrade)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", config.RetryCount+1, lastErr)
	return exitCodeError
}

// probe fetches and decodes the health report. A 503 still carries a body.
func probe(ctx context.Context, client *http.Client, url string) (*report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rep report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if rep.Status == "" {
		rep.Status = healthcheck.StatusUnhealthy
	}
	return &rep, nil
}

func exitCode(status healthcheck.Status, allowDegraded bool) int {
	switch status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if allowDegraded {
			return exitCodeSuccess
		}
	}
	return exitCodeFailure
}

func output(out io.Writer, rep *report, config Config) {
	if config.OutputFormat == "json" {
		data, _ := json.MarshalIndent(rep, "", "  ")
		fmt.Fprintln(out, string(data))
		return
	}

	fmt.Fprintf(out, "Status: %s\n", rep.Status)
	fmt.Fprintf(out, "Version: %s\n", rep.Version)
	if !config.Verbose {
		return
	}
	for _, check := range rep.Checks {
		fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
		if check.Message != "" {
			fmt.Fprintf(out, " (%s)", check.Message)
		}
		fmt.Fprintln(out)
	}
}
