package log

import (
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	_ WithLogger   = &Binder{}
	_ LoggerBinder = &Binder{}
)

// WithLogger 是一个用于访问组件 Logger 的接口。
type WithLogger interface {
	Logger() *MLogger
	CtxLogger(ctx context.Context) *MLogger
}

// LoggerBinder 是一个用于设置 Logger 的接口。
type LoggerBinder interface {
	SetLogger(logger *MLogger)
}

// Binder 嵌入到 Encoder、Decoder 等组件中，为组件绑定独立的 Logger。
// 零值可用，未绑定时使用全局 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

// SetLogger 将 Logger 绑定到 Binder 上，传入 nil 表示解除绑定。
func (w *Binder) SetLogger(logger *MLogger) {
	w.logger.Store(logger)
}

// Logger 返回当前绑定的 Logger，未绑定时退回到全局 Logger。
func (w *Binder) Logger() *MLogger {
	if l := w.logger.Load(); l != nil {
		return l
	}
	return With()
}

// CtxLogger 返回用于本次调用的 Logger。
//
// 未绑定时等同于 Ctx(ctx)；已绑定时使用绑定的 Logger，并追加 ctx 中通过
// WithFields 携带的字段（例如 traceID）。
func (w *Binder) CtxLogger(ctx context.Context) *MLogger {
	l := w.logger.Load()
	if l == nil {
		return Ctx(ctx)
	}
	if ctx == nil {
		return l
	}
	if fields, ok := ctx.Value(ctxFieldsKey).([]zap.Field); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}
