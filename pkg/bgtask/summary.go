package bgtask

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stleox/seecov/pkg/config"
)

// SummaryTask periodically logs the session's diagnostic counters.
type SummaryTask struct {
	m *BgTaskManager
}

func (m *BgTaskManager) addSummaryTask() {
	m.bgTasks = append(m.bgTasks, &SummaryTask{
		m: m,
	})
}

func (t *SummaryTask) Run() {
	stats := t.m.coll.GetStats()
	if stats == nil {
		return
	}
	logrus.Debugf("SeeCov stats: calls=%d lines=%d returns=%d exceptions=%d others=%d "+
		"new_files=%d missed_returns=%d stack_reallocs=%d errors=%d stack_alloc=%d contexts=%d",
		stats.Calls, stats.Lines, stats.Returns, stats.Exceptions, stats.Others,
		stats.NewFiles, stats.MissedReturns, stats.StackReallocs, stats.Errors,
		stats.StackAlloc, stats.Contexts)
}

func (t *SummaryTask) Start() {
	c := cron.New()
	_, err := c.AddJob(config.SummarySchedule, t)
	if err != nil {
		logrus.Warn("SeeCov couldn't add summary task")
		return
	}
	c.Start()
}
