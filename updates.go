package main

import (
	"context"

	"github.com/ezmod/ezmod/message"
)

// receive hands an inbound message to a worker.
func (robo *Robot) receive(ctx context.Context, msg *message.Received) {
	// Run the rest in a worker so that we don't block the update loop.
	work := func(ctx context.Context) {
		robo.metrics.InFlight.Observe(1)
		defer robo.metrics.InFlight.Observe(-1)
		robo.engine.HandleMessage(ctx, msg)
	}
	robo.enqueue(ctx, work)
}

// enqueue hands work to an idle worker, starting a new one if none is free.
// It gives up if ctx ends first.
func (robo *Robot) enqueue(ctx context.Context, work func(context.Context)) {
	var w chan func(context.Context)
	select {
	case w = <-robo.works:
	default:
		// Unbuffered, so that a send succeeds only once a worker has taken
		// the work and will finish it.
		w = make(chan func(context.Context))
		robo.workers.Add(1)
		go func() {
			defer robo.workers.Done()
			worker(ctx, robo.works, w)
		}()
	}
	select {
	case <-ctx.Done():
		return
	case w <- work:
	}
}

// worker runs works until ctx ends or the pool is full.
// Works already taken run to completion even if ctx ends meanwhile.
func worker(ctx context.Context, works chan chan func(context.Context), ch chan func(context.Context)) {
	wctx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case work := <-ch:
			work(wctx)
			// Return to the pool if it has room. Otherwise, we're done.
			select {
			case works <- ch:
			default:
				return
			}
		}
	}
}
