package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/gallerist/curio/internal/seed"
	"github.com/gallerist/curio/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumItems = 1000
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numItems = flag.Int("items", defaultNumItems, "Number of submissions to generate and submit")
		persona  = flag.String("persona", "", "Persona to submit under (empty = service default)")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:  *baseURL,
		NumItems: *numItems,
		Persona:  *persona,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
