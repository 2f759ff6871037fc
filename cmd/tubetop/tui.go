package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tubetop/internal/channels"
	"tubetop/internal/config"
	"tubetop/internal/logging"
	"tubetop/internal/store"
	"tubetop/internal/ui"
)

func runTUI() {
	if err := logging.Init(); err != nil {
		fatal("failed to initialize logging: %v", err)
	}
	defer logging.Close()
	logging.Info("tubetop starting")

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

	// Config file holds the key only when the user put it there; the store
	// is the source of truth otherwise.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = s.Credential()
	}

	app := ui.New(s, registry, cfg, apiKey)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// An API key edited into the config file from another terminal lands in
	// the running dashboard without a restart. Last writer wins.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err = config.Watch(ctx, func(next *config.Config) {
		if next.APIKey != "" {
			p.Send(ui.CredentialChanged{APIKey: next.APIKey})
		}
	})
	if err != nil {
		logging.Warn("config watcher unavailable", "error", err)
	}

	if _, err := p.Run(); err != nil {
		logging.Error("application error", "error", err)
		fatal("error: %v", err)
	}

	logging.Info("tubetop exiting")
}
