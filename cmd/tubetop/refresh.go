package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tubetop/internal/channels"
	"tubetop/internal/config"
	"tubetop/internal/feed"
	"tubetop/internal/logging"
	"tubetop/internal/store"
	"tubetop/internal/youtube"
)

// runRefresh does a headless one-shot aggregation, for cron or scripting.
func runRefresh() {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	timeout := fs.Duration("timeout", 2*time.Minute, "overall refresh timeout")
	fs.Parse(os.Args[1:])

	if err := logging.Init(); err != nil {
		fatal("failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	s, err := store.Open(config.DataPath())
	if err != nil {
		fatal("failed to open store: %v", err)
	}
	defer s.Close()

	registry, err := channels.Load(s)
	if err != nil {
		fatal("failed to load channels: %v", err)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = s.Credential()
	}
	if apiKey == "" {
		fatal("no API key configured (set TUBETOP_API_KEY or run the dashboard and press K)")
	}
	if registry.Len() == 0 {
		fatal("no channels registered (run the dashboard or 'tubetop import')")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	agg := feed.NewAggregator(youtube.NewClient(apiKey), s)
	result, err := agg.Refresh(ctx, registry.All())
	if err != nil {
		fatal("refresh failed: %v", err)
	}

	for _, chErr := range result.Errors {
		fmt.Fprintln(os.Stderr, chErr.Error())
	}
	fmt.Printf("cached %d videos from %d channels (%d failed)\n",
		len(result.Videos), registry.Len(), len(result.Errors))
}
