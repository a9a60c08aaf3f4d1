package bgtask

import (
	"github.com/stleox/seecov/pkg/collector"
)

// BgTaskManager manages background periodical tasks.
// Includes:
// - Flush queued observations into olap
// - Log a stats summary
type BgTaskManager struct {
	bgTasks []BgTask
	coll    *collector.Collector
	flusher *Flusher
}

type BgTask interface {
	Start()
}

func NewBgTaskManager(coll *collector.Collector) *BgTaskManager {
	m := &BgTaskManager{
		bgTasks: make([]BgTask, 0),
		coll:    coll,
		flusher: NewFlusher(coll.Olap()),
	}
	m.addSummaryTask()
	return m
}

func (m *BgTaskManager) StartAll() {
	for _, task := range m.bgTasks {
		task.Start()
	}
}

// Flusher is the queue feeding the olap sink.
func (m *BgTaskManager) Flusher() *Flusher {
	return m.flusher
}
