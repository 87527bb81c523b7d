package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dayti-0/Video-Musique/config"
	"github.com/Dayti-0/Video-Musique/internal/logging"
)

// errCancelled is returned by a command interrupted by the user.
var errCancelled = errors.New("cancelled")

func main() {
	if len(os.Args) < 2 {
		config.PrintUsage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	switch name {
	case "help", "-h", "-help", "--help":
		config.PrintUsage(os.Stdout)
		return
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "❌ Unknown command %q\n\n", name)
		config.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// Step 1: Load configuration (CLI flags > config file > defaults)
	cfg, args, err := config.LoadConfig(name, os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	// Step 2: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 3: Register signal handlers (Ctrl+C, SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n⚠️  Interrupt received, stopping ffmpeg...")
		cancel()
	}()

	a, err := newApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	// Step 4: Run the command
	err = cmd(ctx, a, args)
	a.Close()

	if err != nil {
		if errors.Is(err, errCancelled) || ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "⚠️  Cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
