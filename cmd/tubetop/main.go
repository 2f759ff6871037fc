// Command tubetop is a terminal dashboard for a personal set of YouTube
// channels.
//
// Usage:
//
//	tubetop              Run the dashboard
//	tubetop refresh      Headless one-shot aggregation into the cache
//	tubetop import       Import channels from a YAML file
//	tubetop peek         Print a channel's recent uploads (keyless, Atom feed)
//	tubetop relay        Run the feed relay HTTP server
package main

import (
	"fmt"
	"os"
)

const usage = `tubetop - terminal video dashboard

Usage:
  tubetop [command] [flags]

Commands:
  (none)      Run the dashboard TUI
  refresh     Fetch all registered channels into the cache and exit
  import      Import channels from a YAML file (see import -h)
  peek        Print a channel's recent uploads via its public Atom feed
  relay       Run the feed relay HTTP server

Environment:
  TUBETOP_API_KEY   YouTube Data API key (a .env file is honored)

Run 'tubetop <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		runTUI()
		return
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "refresh":
		runRefresh()
	case "import":
		runImport()
	case "peek":
		runPeek()
	case "relay":
		runRelay()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "tubetop: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
