package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tabscribe/tabscribe/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "list": true, "get": true, "update": true,
	"tag": true, "action": true, "trash": true, "restore": true,
	"purge": true, "project": true, "lens": true, "similar": true,
	"export": true, "sweep": true, "mode": true, "serve": true,
	"help": true,
}

// firstArg returns the first argument after any leading global flags.
func firstArg() string {
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			continue
		}
		return arg
	}
	return ""
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	arg := firstArg()
	if arg == "" {
		return false // No args → MCP server
	}
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	arg := firstArg()
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _        _                   _ _
  | |_ __ _| |__  ___  ___ _ __(_) |__   ___
  | __/ _' | '_ \/ __|/ __| '__| | '_ \ / _ \
  | || (_| | |_) \__ \ (__| |  | | |_) |  __/
   \__\__,_|_.__/|___/\___|_|  |_|_.__/ \___|

  Snippet cards with a literature lens

  Usage: tabscribe <command> [options]
         tabscribe serve
         tabscribe --help

  MCP server mode requires piped input.`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// openFromHome loads config and wires the services under ~/.tabscribe.
func openFromHome(debug bool) (*services, error) {
	dir, err := baseDir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return openServices(dir, cfg, log)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// CLI mode: known subcommand. Services open lazily, so --help and
	// --version never touch the database.
	if isCLIMode() {
		app := newCLIApp(openFromHome)
		if err := app.Run(os.Args); err != nil {
			fatal(err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tabscribe --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	svc, err := openFromHome(os.Getenv("TABSCRIBE_DEBUG") != "")
	if err != nil {
		fatal(err)
	}
	err = serveMCP(svc)
	svc.Close()
	if err != nil {
		fatal(err)
	}
}

// serveMCP runs the stdio server with the reaper alongside. The reaper is
// stopped and joined before returning so the store can be closed safely.
func serveMCP(svc *services) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runWithReaper(ctx, svc, func() error {
		return mcp.Run(svc.mcpDeps(), Version)
	})
}

// runWithReaper runs fn and the reaper together. When fn returns the
// reaper is cancelled and waited for.
func runWithReaper(ctx context.Context, svc *services, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		svc.reaper.Run(ctx)
		return nil
	})
	err := fn()
	cancel()
	_ = g.Wait()
	return err
}
