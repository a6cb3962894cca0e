package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Modes accepted by the --mode flag.
const (
	ModeRelease     = "release"
	ModeDevelopment = "development"
	ModeDebug       = "debug"
)

const (
	maxSize    = 50 // megabytes per log file before it rotates
	maxBackups = 30 // rotated files kept
	maxAge     = 28 // days a rotated file is kept
)

// SetupLogger builds the server logger for mode. It logs to stderr and to
// logFile, rotated by lumberjack.
//
//	release      JSON at info, no caller or stacktraces
//	development  console at info with caller
//	debug        console at debug with caller and stacktraces from warn
func SetupLogger(logFile, mode string) (*zap.Logger, error) {
	switch mode {
	case ModeRelease:
		c := zap.NewProductionConfig()
		c.DisableCaller = true
		c.DisableStacktrace = true
		return build(c, logFile, zap.InfoLevel)
	case ModeDevelopment:
		c := zap.NewDevelopmentConfig()
		c.DisableStacktrace = true
		return build(c, logFile, zap.InfoLevel)
	case ModeDebug:
		return build(zap.NewDevelopmentConfig(), logFile, zap.DebugLevel)
	}
	return nil, fmt.Errorf("unknown log mode %q", mode)
}

// build tees c with a JSON core writing logFile, both at level.
func build(c zap.Config, logFile string, level zapcore.Level) (*zap.Logger, error) {
	c.Level = zap.NewAtomicLevelAt(level)
	encoder := c.EncoderConfig

	return c.Build(zap.WrapCore(func(stderr zapcore.Core) zapcore.Core {
		file := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), rotateWriteSyncer(logFile), level)
		return zapcore.NewTee(stderr, file)
	}))
}

func rotateWriteSyncer(logFile string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	})
}
