package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// for Log

func initLogrus() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		TimestampFormat: time.DateTime,
	})
	ApplyLogLevel()
}

// ApplyLogLevel re-reads the Debug flag, for after flag parsing.
func ApplyLogLevel() {
	if Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func initLog4(path string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	tmpLog, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		panic(err)
	}
	// defer tmpLog.Close()
	logger.SetOutput(tmpLog)
	return logger
}

const (
	PathRawEvent = "/tmp/seecov_raw_event.log.json"
	PathExObs    = "/tmp/seecov_ex_obs.log.json"
)

var (
	// 调试模式下记录原始事件流
	Log4RawEvent = initLog4(PathRawEvent)
	// 异常观测（插入失败等）
	Log4ExObs = initLog4(PathExObs)
)

func init() {
	initLogrus()

	Log4RawEvent.SetLevel(logrus.DebugLevel)
}
