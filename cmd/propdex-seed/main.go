// Bulk property loader for propdex. Reads property record JSON files from a
// directory and upserts them through the HTTP API with a worker pool.
//
// Usage:
//
//	propdex-seed -data-dir ./testdata -addr http://localhost:8080 -workers 4
//
// Env vars:
//
//	PROPDEX_API_KEY — bearer token for the API
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

type config struct {
	dataDir string
	addr    string
	apiKey  string
	workers int
	timeout time.Duration
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.dataDir, "data-dir", "./testdata", "directory with property record *.json files")
	flag.StringVar(&cfg.addr, "addr", "http://localhost:8080", "propdex API base URL")
	flag.IntVar(&cfg.workers, "workers", 4, "number of parallel upsert workers")
	flag.DurationVar(&cfg.timeout, "timeout", 60*time.Second, "per-request timeout")
	flag.Parse()
	cfg.apiKey = os.Getenv("PROPDEX_API_KEY")
	return cfg
}

func main() {
	_ = godotenv.Load()
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		cancel()
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	files, err := listRecordFiles(cfg.dataDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no *.json files in %s", cfg.dataDir)
	}
	log.Printf("loading %d property records with %d workers", len(files), cfg.workers)

	client := &http.Client{Timeout: cfg.timeout}
	jobs := make(chan string)
	var ok, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := upsertFile(ctx, client, cfg, path); err != nil {
					failed.Add(1)
					log.Printf("upsert %s: %v", filepath.Base(path), err)
					continue
				}
				ok.Add(1)
			}
		}()
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("done: %d indexed, %d failed", ok.Load(), failed.Load())
	if failed.Load() > 0 {
		return fmt.Errorf("%d records failed", failed.Load())
	}
	return nil
}

func listRecordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func upsertFile(ctx context.Context, client *http.Client, cfg config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Cheap sanity check before hitting the API.
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, cfg.addr+"/api/v2/property/embedding", bytes.NewReader(data),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
