// Package dispatch provides a sharded, single-goroutine-per-shard executor
// keyed by an arbitrary string key: it hashes the key to one of a fixed
// number of executors and enqueues a closure on it, so that all operations
// against that key are serialised on a single goroutine without needing a
// lock. Here the key is a patientId (for the read-model projector, §5, and
// the score consensus engine, §4.4) or a "patientId|sensorType" pair (for the
// sensor consensus engine, §4.2).
package dispatch

import (
	"hash/fnv"
)

// Dispatcher shards work across a fixed pool of single-goroutine executors.
type Dispatcher struct {
	executors []*executor
}

// New creates a Dispatcher with the given shard count. Status/log plumbing
// lives one layer up in each component rather than in the dispatcher itself.
func New(shardCount int) *Dispatcher {
	if shardCount < 1 {
		shardCount = 1
	}
	d := &Dispatcher{executors: make([]*executor, shardCount)}
	for i := range d.executors {
		d.executors[i] = newExecutor()
	}
	return d
}

// Do enqueues fun to run, serialised with every other Do call for the same
// key, and blocks until fun has returned: a synchronous-from-the-caller's-
// perspective contract used by the read-model projector (§5's "per-patient
// lock... or single-writer projector per partition").
func (d *Dispatcher) Do(key string, fun func()) {
	d.shardFor(key).enqueueSync(fun)
}

// Shutdown stops every shard's goroutine. Registered as an onShutdown hook
// by each service's main.
func (d *Dispatcher) Shutdown() {
	for _, e := range d.executors {
		e.shutdown()
	}
}

func (d *Dispatcher) shardFor(key string) *executor {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	idx := int(h.Sum32()) % len(d.executors)
	if idx < 0 {
		idx += len(d.executors)
	}
	return d.executors[idx]
}

type executor struct {
	work chan func()
	done chan struct{}
}

func newExecutor() *executor {
	e := &executor{work: make(chan func(), 64), done: make(chan struct{})}
	go e.run()
	return e
}

func (e *executor) run() {
	for {
		select {
		case fn, ok := <-e.work:
			if !ok {
				close(e.done)
				return
			}
			fn()
		}
	}
}

func (e *executor) enqueueSync(fun func()) {
	result := make(chan struct{})
	e.work <- func() {
		fun()
		close(result)
	}
	<-result
}

func (e *executor) shutdown() {
	close(e.work)
	<-e.done
}
