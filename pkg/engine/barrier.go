package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// barrier defers mutating operations issued while another one is running.
// depth > 0 means an epoch is open; queued ops run in submission order once
// the outermost operation returns.
type barrier struct {
	depth int
	queue []pendingOp
}

type pendingOp struct {
	name   string
	target *vnode // dropped at dequeue once pruned
	root   *Root  // dropped at dequeue once destroyed
	fn     func() error
}

// Epoch reports whether a mutating operation is in progress.
func (e *Engine) Epoch() bool {
	return e.barrier.depth > 0
}

// exec runs fn as a mutating operation. Inside an epoch fn is queued and
// exec returns nil; otherwise exec opens an epoch, runs fn, then drains the
// queue. The first error aborts the epoch and discards what is left.
func (e *Engine) exec(name string, target *vnode, root *Root, fn func() error) (err error) {
	if e.barrier.depth > 0 {
		e.barrier.queue = append(e.barrier.queue, pendingOp{name: name, target: target, root: root, fn: fn})
		e.metrics.queued()
		return nil
	}

	_, span := e.startSpan(context.Background(), "epoch."+name)
	start := time.Now()
	e.barrier.depth++
	defer func() {
		e.barrier.depth = 0
		if r := recover(); r != nil {
			e.barrier.queue = nil
			span.End()
			panic(r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.metrics.epoch(time.Since(start))
	}()

	ran := 1
	err = fn()
	for err == nil && len(e.barrier.queue) > 0 {
		op := e.barrier.queue[0]
		e.barrier.queue = e.barrier.queue[1:]
		if (op.target != nil && !op.target.alive()) || (op.root != nil && op.root.destroyed) {
			e.logger.Debug("dropped queued operation", "op", op.name)
			e.metrics.dropped()
			continue
		}
		ran++
		err = op.fn()
	}
	if err != nil {
		if n := len(e.barrier.queue); n > 0 {
			e.logger.Warn("epoch aborted, discarding queued operations", "op", name, "discarded", n, "error", err)
		}
		// Roots whose build was still queued never got a tree.
		for _, op := range e.barrier.queue {
			if op.root != nil && op.root.vtree == nil {
				e.destroyRoot(op.root)
			}
		}
		e.barrier.queue = nil
	}
	e.logger.Debug("epoch done", "op", name, "ops", ran)
	return err
}
