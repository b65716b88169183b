package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ezmod/ezmod/blocklist"
	"github.com/ezmod/ezmod/message"
	"github.com/ezmod/ezmod/metrics"
	"github.com/ezmod/ezmod/moderation"
)

// Robot is the overall state of the bot.
type Robot struct {
	// engine handles messages.
	engine *moderation.Engine
	// blocklist is the blocklist store shared with the engine.
	blocklist *blocklist.Store
	// updates is the source of inbound messages.
	updates updateSource
	// works is the worker pool.
	works chan chan func(context.Context)
	// workers tracks running workers.
	workers sync.WaitGroup
	// metrics are the bot's metrics.
	metrics *metrics.Metrics
}

// updateSource delivers inbound chat messages until its context ends.
type updateSource interface {
	Updates(ctx context.Context, handle func(context.Context, *message.Received)) error
}

// New creates a new robot instance. Use the Set and Init methods to finish
// initializing it.
func New(poolSize int) *Robot {
	return &Robot{
		works:   make(chan chan func(context.Context), poolSize),
		metrics: metrics.New(),
	}
}

// Run receives updates and serves the HTTP API until ctx is canceled.
// If listen is empty, the HTTP API is disabled.
// Run returns after messages already being handled are finished.
func (robo *Robot) Run(ctx context.Context, listen string) error {
	group, ctx := errgroup.WithContext(ctx)
	if listen != "" {
		group.Go(func() error {
			return robo.api(ctx, listen, new(http.ServeMux), robo.metrics.Collectors())
		})
	}
	group.Go(func() error {
		slog.InfoContext(ctx, "receiving updates")
		return robo.updates.Updates(ctx, robo.receive)
	})
	err := group.Wait()
	robo.workers.Wait()
	if errors.Is(err, context.Canceled) {
		// If the first error is context canceled, then we are shutting down
		// normally in response to a sigint.
		err = nil
	}
	return err
}
