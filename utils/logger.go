package utils

import (
	"log"

	"expertmeet/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Global logger instance
var Logger *zap.Logger

// InitializeLogger sets up the logging configuration. When LOG_FILE is set the
// console output is teed into a size-rotated JSON file.
func InitializeLogger() {
	var cfg zap.Config

	if config.IsProduction() {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(config.AppConfig.LogLevel, zap.InfoLevel))
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(config.AppConfig.LogLevel, zap.DebugLevel))
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var err error
	Logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if path := config.AppConfig.LogFile; path != "" {
		Logger = Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore(path, cfg.Level))
		}))
	}
	zap.ReplaceGlobals(Logger)
}

func fileCore(path string, level zap.AtomicLevel) zapcore.Core {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level)
}

func parseLevel(s string, fallback zapcore.Level) zapcore.Level {
	if s == "" {
		return fallback
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return lvl
}

// GetLogger retrieves the global logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitializeLogger()
	}
	return Logger
}

// Sync flushes buffered log entries. Errors from syncing a terminal are ignored.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
