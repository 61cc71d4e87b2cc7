// Command planconv converts project schedules to JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/trabalhosfenix/planconv/cmd"
)

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	err := cmd.Run(ctx, os.Args[1:])
	switch code := cmd.ExitCode(ctx, err); code {
	case 0:
	case 1:
		// Usage was already printed.
		os.Exit(code)
	case 130:
		fmt.Fprintf(os.Stderr, "\nInterrupted\n")
		os.Exit(code)
	default:
		cmd.PrintError(os.Stderr, err)
		os.Exit(code)
	}
}
