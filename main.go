package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/locvowork/school_management/internal/bootstrap"
	"github.com/locvowork/school_management/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
		os.Exit(1)
	}

	logger.InfoLog(ctx, "Starting server on :%s", app.Config.APP_PORT)
	if err := app.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorLog(ctx, "Server stopped: %v", err)
		os.Exit(1)
	}
}
