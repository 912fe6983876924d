package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process logger. "production" emits JSON at info level,
// everything else uses the development console encoder at debug level.
func Init(env string) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}

	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() {
	_ = get().Sync()
}

func Debug(msg string, keysAndValues ...any) {
	get().Debugw(msg, normalize(keysAndValues)...)
}

func Info(msg string, keysAndValues ...any) {
	get().Infow(msg, normalize(keysAndValues)...)
}

func Warn(msg string, keysAndValues ...any) {
	get().Warnw(msg, normalize(keysAndValues)...)
}

func Error(msg string, keysAndValues ...any) {
	get().Errorw(msg, normalize(keysAndValues)...)
}

func Fatal(msg string, keysAndValues ...any) {
	get().Fatalw(msg, normalize(keysAndValues)...)
}

// normalize turns a trailing lone error (logger.Error("msg", err)) into an
// "error" field so odd-length argument lists still log cleanly.
func normalize(kv []any) []any {
	if len(kv)%2 == 0 {
		return kv
	}
	last := kv[len(kv)-1]
	out := make([]any, 0, len(kv)+1)
	out = append(out, kv[:len(kv)-1]...)
	return append(out, "error", last)
}
