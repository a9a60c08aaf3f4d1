package config

import (
	"time"
)

const (
	// sentinel for "no previous line in this frame"
	NoLastLine = -1

	DefaultDataFile  = ".seecov"
	DefaultCollector = "seecov"
)

// for root
var (
	Debug = false
)

// for pkg collector
var (
	// 影子栈每次扩容的步长
	StackDelta = 100
	// 每个 context 栈表的扩容步长
	StacksDelta = 10
)

// for pkg policy
var (
	// canonical path cache size
	MaxNumCanonPath = 1024
)

// for bgtask
var (
	// olap 刷盘的时间间隔
	FlushInterval = time.Second
	// stats 摘要日志的调度表达式
	SummarySchedule = "@every 10s"

	// 每批插入 olap 的观测数量
	BatchObs = 50
)

// for DB
var (
	// 测试账号
	SEECOV_DEFAULT_DSN = "root:@tcp(127.0.0.1:9030)/seecov"
)
