// Package logging 结构化日志
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	TraceIDKey      ContextKey = "trace_id"
	UserIDKey       ContextKey = "user_id"
	CourseIDKey     ContextKey = "course_id"
	EnrollmentIDKey ContextKey = "enrollment_id"
)

// Logger 结构化日志器
type Logger struct {
	*slog.Logger
	component string
}

// Config 日志配置
type Config struct {
	Level     string `json:"level"`
	Format    string `json:"format"` // json or text
	Output    string `json:"output"` // stdout, stderr, or file path
	Component string `json:"component"`
}

// New 创建新的日志器
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var output io.Writer
	switch cfg.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			output = os.Stdout
		} else {
			output = f
		}
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: cfg.Component,
	}
}

// Default 创建默认日志器
func Default(component string) *Logger {
	return New(Config{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		Output:    "stdout",
		Component: component,
	})
}

// WithContext 从上下文提取追踪信息
func (l *Logger) WithContext(ctx context.Context) *Logger {
	attrs := []any{slog.String("component", l.component)}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	if courseID, ok := ctx.Value(CourseIDKey).(string); ok && courseID != "" {
		attrs = append(attrs, slog.String("course_id", courseID))
	}
	if enrollmentID, ok := ctx.Value(EnrollmentIDKey).(string); ok && enrollmentID != "" {
		attrs = append(attrs, slog.String("enrollment_id", enrollmentID))
	}

	return &Logger{
		Logger:    l.Logger.With(attrs...),
		component: l.component,
	}
}

// WithUserID 添加用户 ID
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(slog.String("user_id", userID)),
		component: l.component,
	}
}

// WithCourseID 添加课程 ID
func (l *Logger) WithCourseID(courseID string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(slog.String("course_id", courseID)),
		component: l.component,
	}
}

// WithError 添加错误信息
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		Logger:    l.Logger.With(slog.String("error", err.Error())),
		component: l.component,
	}
}

// WithDuration 添加持续时间
func (l *Logger) WithDuration(d time.Duration) *Logger {
	return &Logger{
		Logger:    l.Logger.With(slog.Float64("duration_ms", float64(d.Milliseconds()))),
		component: l.component,
	}
}

// DBQueryLog 数据库查询日志
func (l *Logger) DBQueryLog(operation, table string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("table", table),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.Logger.Error("DB query failed", attrs...)
	} else {
		l.Logger.Debug("DB query", attrs...)
	}
}

// BlobLog 对象存储操作日志
func (l *Logger) BlobLog(action, key string, size int, duration time.Duration, err error) {
	attrs := []any{
		slog.String("action", action),
		slog.String("key", key),
		slog.Int("size_bytes", size),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.Logger.Warn("Blob operation failed", attrs...)
	} else {
		l.Logger.Debug("Blob operation", attrs...)
	}
}

// SeedLog 演示数据注入日志
func (l *Logger) SeedLog(backend string, users, courses, enrollments, reviews int) {
	l.Logger.Info("Demo data seeded",
		slog.String("backend", backend),
		slog.Int("users", users),
		slog.Int("courses", courses),
		slog.Int("enrollments", enrollments),
		slog.Int("reviews", reviews),
	)
}
