// Package main is the entry point for the codelens bridge.
//
// The binary reads editor events as newline-delimited JSON on stdin and
// writes UI commands to stdout, mediating between the editor and the local
// code-intelligence service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/codelens/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		serviceURL  string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to settings TOML file")
	flag.StringVar(&serviceURL, "url", "", "Code-intelligence service URL override")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("codelens %s (%s)\n", version, commit)
		return 0
	}

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		ServiceURL: serviceURL,
		LogLevel:   logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application.WatchConfig(ctx)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
		os.Stdin.Close()
	}()

	if err := application.RunStream(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}
