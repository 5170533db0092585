// Command contractkit generates typed API contracts from OpenAPI documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/mark3labs/contractkit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		prefix := "error:"
		if errors.Is(err, cli.ErrUsage) {
			prefix = "usage error:"
		}
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint(prefix), err)
		stop()
		os.Exit(1)
	}
}
