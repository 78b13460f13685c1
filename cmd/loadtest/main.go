package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/careerrank/internal/loadtest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loadtest.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
