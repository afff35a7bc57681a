package main

import (
	"context"
	"time"

	"github.com/YessineAmor/stampd/internal/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	application := app.New()

	// Start returns a channel closed by the signal handler.
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	application.Stop(ctx)
}
