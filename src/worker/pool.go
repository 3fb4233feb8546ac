package worker

import (
	"context"
	"log"
	"sync"

	"selection-context/src/engine"
)

// Retriever runs one selection retrieval.
type Retriever interface {
	Retrieve(ctx context.Context) (engine.Result, error)
}

// ResultCallback is invoked on retrieval completion (from the worker goroutine).
type ResultCallback func(res engine.Result, err error)

// Pool runs retrievals on a single worker with a 1-slot input queue (strict
// back-pressure). Retrievals drive the keyboard and clipboard, so they never
// run concurrently.
type Pool struct {
	r    Retriever
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx context.Context
	cb  ResultCallback
}

func New(r Retriever) *Pool {
	p := &Pool{r: r, jobs: make(chan job, 1)}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		if err := j.ctx.Err(); err != nil {
			log.Printf("Worker: dropping expired request: %v", err)
			j.cb(engine.Result{}, err)
			continue
		}
		log.Printf("Worker: starting retrieval")
		res, err := p.r.Retrieve(j.ctx)
		log.Printf("Worker: retrieval completed, strategy=%q err=%v", res.Strategy, err)
		j.cb(res, err)
	}
}

// Submit enqueues a retrieval if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
