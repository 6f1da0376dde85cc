package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gallerist/curio/pkg/logger"
)

// Run generates submissions and posts them to the service.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	subs := generateSubmissions(cfg)
	stats.Generated = len(subs)
	log.Info(ctx, "generated submissions", logger.Int("count", len(subs)))

	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/critiques"

	var successful, duplicate, failed atomic.Int64

	jobs := make(chan submission)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				ack, err := post(ctx, client, url, sub)
				switch {
				case err != nil:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed",
							logger.String("submissionID", sub.SubmissionID),
							logger.Error(err),
						)
					}
				case ack.Duplicate:
					duplicate.Add(1)
				default:
					successful.Add(1)
				}
			}
		}()
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return stats, ctx.Err()
		case jobs <- sub:
		}
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = len(subs)
	stats.Successful = int(successful.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	stats.Duration = time.Since(stats.StartTime)

	log.Info(ctx, "seeding finished",
		logger.Int("successful", stats.Successful),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// post submits a single critique and decodes the acknowledgement.
func post(ctx context.Context, client *http.Client, url string, sub submission) (ackResponse, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return ackResponse{}, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ackResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return ackResponse{}, fmt.Errorf("post critique: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ackResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return ackResponse{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	var ack ackResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return ackResponse{}, fmt.Errorf("decode ack: %w", err)
	}
	return ack, nil
}
