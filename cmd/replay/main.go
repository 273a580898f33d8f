// Replay tool for testing the eligibility engine against labelled
// chat transcripts.
//
// Usage:
//   go run cmd/replay/main.go -csv /path/to/messages.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labelled chat messages (message, expected outcome)
//   2. Sends each message to the engine for processing
//   3. Compares the returned status with the expected label
//   4. Reports accuracy, error counts and latency
//
// The CSV needs two columns: "message" and "expected". Expected values
// are ELIGIBLE, NOT_ELIGIBLE, CANNOT_CONFIRM, ERROR, or SKIP for
// messages that should not be treated as eligibility inquiries.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LabelledMessage is a row from the transcript CSV.
type LabelledMessage struct {
	Message  string
	Expected string
}

// CheckRequest is the engine API request format.
type CheckRequest struct {
	Message string `json:"message"`
}

// CheckResponse is the subset of the engine payload the tool inspects.
type CheckResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Accounts  []struct {
		Status string `json:"status"`
	} `json:"accounts"`
}

// Metrics tracks replay results.
type Metrics struct {
	Matches        int64
	Mismatches     int64
	TotalProcessed int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labelled transcript CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Engine base URL")
	limit := flag.Int("limit", 0, "Maximum messages to process (0 = all)")
	workers := flag.Int("workers", 5, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each message result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: replay -csv /path/to/messages.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("ELIGIBILITY REPLAY")
	fmt.Printf("\nCSV File:  %s\n", *csvPath)
	fmt.Printf("URL:       %s\n", *baseURL)
	fmt.Printf("Workers:   %d\n", *workers)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: engine not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the engine is running:")
		fmt.Println("  go run cmd/eligibility/main.go")
		os.Exit(1)
	}
	fmt.Println("engine is healthy")

	messages, err := readTranscriptCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("loaded %d messages\n", len(messages))

	fmt.Printf("\nreplaying with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runReplay(messages, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readTranscriptCSV(path string, limit int) ([]LabelledMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	msgIdx, ok := colIndex["message"]
	if !ok {
		return nil, fmt.Errorf("missing column: message")
	}
	expIdx, ok := colIndex["expected"]
	if !ok {
		return nil, fmt.Errorf("missing column: expected")
	}

	var messages []LabelledMessage
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		messages = append(messages, LabelledMessage{
			Message:  record[msgIdx],
			Expected: strings.ToUpper(strings.TrimSpace(record[expIdx])),
		})

		if limit > 0 && len(messages) >= limit {
			break
		}
	}

	return messages, nil
}

func runReplay(messages []LabelledMessage, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan LabelledMessage, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for msg := range work {
				start := time.Now()
				got, err := checkMessage(client, baseURL, msg.Message)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %v\n", err)
					}
					continue
				}

				if got == msg.Expected {
					atomic.AddInt64(&metrics.Matches, 1)
				} else {
					atomic.AddInt64(&metrics.Mismatches, 1)
				}

				if verbose {
					mark := "ok"
					if got != msg.Expected {
						mark = "MISMATCH"
					}
					fmt.Printf("%-8s | expected %-14s got %-14s | %dms\n",
						mark, msg.Expected, got, elapsed)
				}
			}
		}()
	}

	for _, msg := range messages {
		work <- msg
	}
	close(work)

	wg.Wait()
	return metrics
}

// checkMessage posts one message and reduces the response to a single
// comparable label.
func checkMessage(client *http.Client, baseURL, message string) (string, error) {
	body, err := json.Marshal(CheckRequest{Message: message})
	if err != nil {
		return "", err
	}

	resp, err := client.Post(baseURL+"/eligibility", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return "SKIP", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	if payload.Status != "" {
		return payload.Status, nil
	}
	if len(payload.Accounts) > 0 {
		return payload.Accounts[0].Status, nil
	}
	return "", fmt.Errorf("payload has no accounts")
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println()
	fmt.Println("RESULTS")
	fmt.Printf("  Processed:   %d\n", m.TotalProcessed)
	fmt.Printf("  Matches:     %d\n", m.Matches)
	fmt.Printf("  Mismatches:  %d\n", m.Mismatches)
	fmt.Printf("  Errors:      %d\n", m.TotalErrors)

	labelled := m.Matches + m.Mismatches
	if labelled > 0 {
		fmt.Printf("  Accuracy:    %.2f%%\n", 100*float64(m.Matches)/float64(labelled))
	}
	if m.TotalProcessed > 0 {
		fmt.Printf("  Avg latency: %.1fms\n", float64(m.ProcessingTimeMs)/float64(m.TotalProcessed))
	}
	fmt.Printf("  Wall time:   %s\n", duration.Round(time.Millisecond))
}
