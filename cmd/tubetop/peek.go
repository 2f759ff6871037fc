package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tubetop/internal/logging"
	"tubetop/internal/rss"
)

// runPeek prints a channel's recent uploads from its public Atom feed.
// Works without an API key; view counts and durations are not available on
// this path.
func runPeek() {
	fs := flag.NewFlagSet("peek", flag.ExitOnError)
	relayURL := fs.String("relay", "", "route the fetch through a tubetop relay (e.g. http://localhost:8099)")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fatal("usage: tubetop peek [-relay URL] <channel-id>")
	}
	channelID := fs.Arg(0)

	if err := logging.Init(); err != nil {
		fatal("failed to initialize logging: %v", err)
	}
	defer logging.Close()

	src := rss.NewSource(30 * time.Second)
	if *relayURL != "" {
		src.ViaRelay(*relayURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	videos, err := src.Fetch(ctx, channelID)
	if err != nil {
		fatal("fetch failed: %v", err)
	}
	if len(videos) == 0 {
		fmt.Println("no recent uploads")
		return
	}

	fmt.Printf("%s - %d recent uploads\n\n", videos[0].ChannelTitle, len(videos))
	for _, v := range videos {
		fmt.Fprintf(os.Stdout, "%s  %s\n    %s\n", v.PublishedAt.Format("2006-01-02"), v.Title, v.URL)
	}
}
