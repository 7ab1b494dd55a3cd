package observability

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/game/trace"
)

// NewTraceSink returns a sink that logs every simulation event at debug level.
// When debug is disabled the sink discards events without formatting them.
//
// Precondition: logger must be non-nil.
func NewTraceSink(logger *zap.Logger) trace.Sink {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return trace.Nop()
	}
	l := logger.Named("trace")
	return trace.SinkFunc(func(ev trace.Event) {
		fields := []zap.Field{
			zap.Float64("t", ev.Time),
			zap.String("kind", string(ev.Kind)),
		}
		if ev.Subject != "" {
			fields = append(fields, zap.String("subject", ev.Subject))
		}
		if ev.Amount != 0 {
			fields = append(fields, zap.Float64("amount", ev.Amount))
		}
		if ev.Detail != "" {
			fields = append(fields, zap.String("detail", ev.Detail))
		}
		l.Debug("sim event", fields...)
	})
}
