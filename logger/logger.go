package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

// Init 初始化全局日志。SPACERACE_DEBUG 非空时输出开发格式和 debug 级别，
// 方便本地对局调试。
func Init() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("SPACERACE_DEBUG") != "" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries, for use on shutdown.
func Sync() {
	if Log != nil {
		Log.Sync()
	}
}
