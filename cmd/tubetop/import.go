package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tubetop/internal/channels"
	"tubetop/internal/config"
	"tubetop/internal/logging"
	"tubetop/internal/store"
	"tubetop/internal/youtube"
)

// importFile is the YAML shape 'tubetop import' reads:
//
//	channels:
//	  - UCYO_jab_esuFRV4b17AJtAw
//	  - "@veritasium"
type importFile struct {
	Channels []string `yaml:"channels"`
}

// runImport resolves each identifier in a YAML file and appends it to the
// registry. Duplicates and lookup misses are reported but don't stop the run.
func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	path := fs.String("file", "channels.yaml", "YAML file with a channels list")
	fs.Parse(os.Args[1:])

	if err := logging.Init(); err != nil {
		fatal("failed to initialize logging: %v", err)
	}
	defer logging.Close()

	data, err := os.ReadFile(*path)
	if err != nil {
		fatal("failed to read %s: %v", *path, err)
	}

	var imp importFile
	if err := yaml.Unmarshal(data, &imp); err != nil {
		fatal("failed to parse %s: %v", *path, err)
	}
	if len(imp.Channels) == 0 {
		fatal("%s lists no channels", *path)
	}

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
		fatal("no API key configured (set TUBETOP_API_KEY)")
	}

	client := youtube.NewClient(apiKey)
	added, skipped := 0, 0
	for _, identifier := range imp.Channels {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		ch, err := client.ResolveChannel(ctx, identifier)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", identifier, err)
			skipped++
			continue
		}

		ok, err := registry.Add(channels.Channel{
			ID:                ch.ID,
			Title:             ch.Title,
			UploadsPlaylistID: ch.UploadsPlaylistID,
		})
		if err != nil {
			fatal("failed to save channel %s: %v", ch.Title, err)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "skipping %s: already registered\n", ch.Title)
			skipped++
			continue
		}
		fmt.Printf("added %s\n", ch.Title)
		added++
	}

	fmt.Printf("imported %d channels (%d skipped)\n", added, skipped)
}
