package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sylvester-francis/sensu-api/engine"
)

func main() {
	ctx := context.Background()

	eng, err := engine.New(ctx)
	if err != nil {
		slog.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := eng.Init(ctx); err != nil {
		slog.Error("initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
