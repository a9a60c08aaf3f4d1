package bgtask

import (
	"github.com/stleox/seecov/pkg/collector"
	"github.com/stleox/seecov/pkg/config"
	"github.com/zeromicro/go-zero/core/executors"
)

// Flusher queues observations and bulk-inserts them into the olap sink,
// either when a batch fills or when the flush interval elapses.
type Flusher struct {
	executor *executors.PeriodicalExecutor
	tasker   *obsTasker
}

func NewFlusher(olap *collector.Olap) *Flusher {
	tasker := &obsTasker{
		olap: olap,
	}
	return &Flusher{
		executor: executors.NewPeriodicalExecutor(config.FlushInterval, tasker),
		tasker:   tasker,
	}
}

// Add queues one observation.
func (f *Flusher) Add(obs collector.Observation) {
	f.executor.Add(obs)
}

// Flush forces out any queued observations.
func (f *Flusher) Flush() {
	f.executor.Flush()
}

// Wait blocks until in-flight inserts complete.
func (f *Flusher) Wait() {
	f.executor.Wait()
}

type obsTasker struct {
	olap  *collector.Olap
	tasks []collector.Observation
}

func (t *obsTasker) AddTask(task any) bool {
	obs, ok := task.(collector.Observation)
	if !ok {
		return false
	}
	t.tasks = append(t.tasks, obs)
	return len(t.tasks) >= config.BatchObs
}

func (t *obsTasker) Execute(tasks any) {
	if t.olap == nil {
		return // under testing
	}
	for _, obs := range tasks.([]collector.Observation) {
		// InsertObs 自身记录异常观测
		_ = t.olap.InsertObs(obs)
	}
	t.olap.Flush()
}

func (t *obsTasker) RemoveAll() any {
	tasks := t.tasks
	t.tasks = nil
	return tasks
}
