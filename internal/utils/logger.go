package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// MainLogFile 主日志文件名,记录所有级别
	MainLogFile = "contact_crawler.log"
	// ErrorLogFile 错误日志文件名,只记录error及以上
	ErrorLogFile = "contact_crawler_error.log"
)

var (
	// Logger 全局日志器; 调用SetRun后每条日志都带run_id和policy字段
	Logger zerolog.Logger

	// base 未绑定运行信息的日志器, SetRun总是在它之上重新派生
	base zerolog.Logger
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string // trace, debug, info, warn, error
	LogDir     string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool

	// Console 控制台输出,默认stderr(与进度条一致,stdout留给汇总信息)
	Console io.Writer
}

// DefaultLogConfig 默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		LogDir:     "logs",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// rotatingFile 日志目录下的轮转文件
func (c LogConfig) rotatingFile(name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(c.LogDir, name),
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// parseLevel 空值或无法识别的级别按info处理
func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// InitLogger 初始化日志系统
// 控制台用人类可读格式; 两个日志文件是JSON行,可以按run_id或url字段过滤
func InitLogger(config LogConfig) error {
	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return err
	}

	level := parseLevel(config.Level)
	zerolog.SetGlobalLevel(level)

	console := config.Console
	if console == nil {
		console = os.Stderr
	}

	writer := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05", FieldsExclude: []string{"run_id", "policy"}},
		config.rotatingFile(MainLogFile),
		&FilteredWriter{Writer: config.rotatingFile(ErrorLogFile), MinLevel: zerolog.ErrorLevel},
	)

	base = zerolog.New(writer).With().Timestamp().Logger()
	Logger = base
	log.Logger = base

	Logger.Debug().
		Str("level", level.String()).
		Str("log_dir", config.LogDir).
		Msg("日志系统初始化完成")
	return nil
}

// SetRun 绑定当前运行的ID和分类策略
// 恢复的运行沿用检查点中的run_id,所以同一份检查点的日志可以串起来
func SetRun(runID, policy string) {
	Logger = base.With().Str("run_id", runID).Str("policy", policy).Logger()
	log.Logger = Logger
}

// URLFailure 记录单个详情页的失败,URL作为结构化字段
func URLFailure(pageURL string, err error) {
	Logger.Warn().Str("url", pageURL).Err(err).Msg("❌ 详情页处理失败")
}

// FilteredWriter 只写入MinLevel及以上级别的日志
type FilteredWriter struct {
	Writer   io.Writer
	MinLevel zerolog.Level
}

// Write 没有级别信息时直接写入
func (w *FilteredWriter) Write(p []byte) (n int, err error) {
	return w.Writer.Write(p)
}

// WriteLevel 实现zerolog.LevelWriter
func (w *FilteredWriter) WriteLevel(level zerolog.Level, p []byte) (n int, err error) {
	if level < w.MinLevel {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

func Info(msg string) { Logger.Info().Msg(msg) }

func Infof(format string, args ...interface{}) { Logger.Info().Msgf(format, args...) }

func Warn(msg string) { Logger.Warn().Msg(msg) }

func Warnf(format string, args ...interface{}) { Logger.Warn().Msgf(format, args...) }

func Debug(msg string) { Logger.Debug().Msg(msg) }

func Debugf(format string, args ...interface{}) { Logger.Debug().Msgf(format, args...) }

// Error 带错误对象的错误日志
func Error(err error, msg string) { Logger.Error().Err(err).Msg(msg) }

func Errorf(format string, args ...interface{}) { Logger.Error().Msgf(format, args...) }
