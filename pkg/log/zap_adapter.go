package log

import (
	"encoding/hex"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter writes diagnostic events to a zap.Logger.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates a ZapAdapter. The logger is named "devdesc".
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.Named("devdesc")}
}

// Log writes the event at the zap level matching its severity.
func (a *ZapAdapter) Log(event Event) {
	ce := a.logger.Check(ZapLevel(event.Level), event.Message)
	if ce == nil {
		return
	}

	fields := []zap.Field{zap.Stringer("layer", event.Layer)}
	if event.LoadID != "" {
		fields = append(fields, zap.String("load_id", event.LoadID))
	}
	if event.Source != "" {
		fields = append(fields, zap.String("source", event.Source))
	}
	if event.Component != "" {
		fields = append(fields, zap.String("component", event.Component))
	}
	if event.ParameterID != "" {
		fields = append(fields, zap.String("parameter", event.ParameterID))
	}
	if len(event.Data) > 0 {
		fields = append(fields, zap.String("data", hex.EncodeToString(event.Data)))
	}
	ce.Write(fields...)
}

// ZapLevel maps a severity to the zap level it is written at.
func ZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZapAdapter)(nil)
