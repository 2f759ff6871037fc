package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"tubetop/internal/config"
	"tubetop/internal/logging"
	"tubetop/internal/relay"
)

// runRelay serves the feed relay until interrupted.
func runRelay() {
	fs := flag.NewFlagSet("relay", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default from config)")
	fs.Parse(os.Args[1:])

	if err := logging.Init(); err != nil {
		fatal("failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	listen := cfg.RelayAddr
	if *addr != "" {
		listen = *addr
	}

	srv := relay.NewServer(30 * time.Second)
	logging.Info("relay listening", "addr", listen)
	fmt.Printf("relay listening on %s\n", listen)
	if err := http.ListenAndServe(listen, srv.Router()); err != nil {
		fatal("relay failed: %v", err)
	}
}
