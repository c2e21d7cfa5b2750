package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chengsir22/hades/settings"
)

// 结构化日志，zap 负责编码，lumberjack 负责文件切割

const defaultCallerSkip = 1

var (
	level = zap.NewAtomicLevelAt(zap.InfoLevel)

	// DefaultLogger 未调用 Setup 之前只输出到标准输出
	DefaultLogger = NewStdoutLogger()
	sugar         = DefaultLogger.Sugar()
)

// NewStdoutLogger creates a logger which print msg to stdout
func NewStdoutLogger() *zap.Logger {
	core := zapcore.NewCore(getEncoder(false), zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(defaultCallerSkip))
}

// NewFileLogger creates a logger which print msg to a rotated log file, and stdout if configured
func NewFileLogger(conf *settings.LogConfig) (*zap.Logger, error) {
	if err := SetLevel(conf.Level); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.Path, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error during mkdir %s: %w", conf.Path, err)
	}

	fileName := fmt.Sprintf("%s-%s.%s",
		conf.Name,
		time.Now().Format(conf.TimeFormat),
		conf.Ext)
	rotate := &lumberjack.Logger{
		Filename:   filepath.Join(conf.Path, fileName),
		MaxSize:    conf.MaxSize,
		MaxAge:     conf.MaxAge,
		MaxBackups: conf.MaxBackups,
		Compress:   conf.Compress,
	}

	cores := []zapcore.Core{zapcore.NewCore(getEncoder(true), zapcore.AddSync(rotate), level)}
	if conf.Stdout {
		cores = append(cores, zapcore.NewCore(getEncoder(false), zapcore.Lock(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(defaultCallerSkip)), nil
}

// Setup initializes DefaultLogger
func Setup(conf *settings.LogConfig) {
	l, err := NewFileLogger(conf)
	if err != nil {
		panic(err)
	}
	_ = DefaultLogger.Sync()
	DefaultLogger = l
	sugar = l.Sugar()
}

// SetLevel 动态调整日志级别，配置热更新时调用
func SetLevel(text string) error {
	if text == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(text))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", text, err)
	}
	level.SetLevel(l)
	return nil
}

// Level 当前日志级别
func Level() string {
	return level.Level().String()
}

func getEncoder(json bool) zapcore.Encoder {
	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.TimeKey = "time"
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encodeConfig.EncodeDuration = zapcore.StringDurationEncoder
	encodeConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encodeConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if json {
		return zapcore.NewJSONEncoder(encodeConfig)
	}
	return zapcore.NewConsoleEncoder(encodeConfig)
}

// Sync flushes buffered entries
func Sync() error {
	return DefaultLogger.Sync()
}

// With creates a child logger with structured context
func With(fields ...zap.Field) *zap.Logger {
	return DefaultLogger.With(fields...)
}

// Debug logs debug message through DefaultLogger
func Debug(v ...interface{}) {
	sugar.Debug(v...)
}

// Debugf logs debug message through DefaultLogger
func Debugf(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// Info logs message through DefaultLogger
func Info(v ...interface{}) {
	sugar.Info(v...)
}

// Infof logs message through DefaultLogger
func Infof(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Warn logs warning message through DefaultLogger
func Warn(v ...interface{}) {
	sugar.Warn(v...)
}

// Warnf logs warning message through DefaultLogger
func Warnf(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// Error logs error message through DefaultLogger
func Error(v ...interface{}) {
	sugar.Error(v...)
}

// Errorf logs error message through DefaultLogger
func Errorf(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// Fatal prints error message then stop the program
func Fatal(v ...interface{}) {
	sugar.Fatal(v...)
}
