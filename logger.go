package doccache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Field keys the backend logs with. Adapters under log/ treat an error value
// under any key as a structured error.
const (
	fieldCacheID = "cache_id"
	fieldReason  = "reason"
	fieldErr     = "err"
	fieldMode    = "mode"
)

// Logger is a leveled logger; adapters for zap, logrus and slog live under log/.
// A nil Logger in Options disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
