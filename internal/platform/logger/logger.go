package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger handed to every component. Keys and values
// pass through the redactor before reaching zap.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

// New builds a logger for the given mode ("prod"/"production" emit JSON,
// anything else uses the development console encoder). The level is read
// from LOG_LEVEL and defaults to debug.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
	zapLogger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), redact: redactorFromEnv()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: &redactor{}}
}

// NewWithCore wraps an existing zap core. Tests use it with an observer core.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{SugaredLogger: zap.New(core).Sugar(), redact: redactorFromEnv()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.redact.kvs(keysAndValues)...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.redact.kvs(keysAndValues)...),
		redact:        l.redact,
	}
}

func levelFromEnv() zapcore.Level {
	lvl := zapcore.DebugLevel
	if raw := strings.TrimSpace(getenv("LOG_LEVEL")); raw != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
			return zapcore.DebugLevel
		}
	}
	return lvl
}
