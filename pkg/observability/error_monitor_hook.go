package observability

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/pkg/field"
	xruntime "github.com/facebookincubator/go-belt/pkg/runtime"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	errmontypes "github.com/facebookincubator/go-belt/tool/experimental/errmon/types"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/adapter"
	loggertypes "github.com/facebookincubator/go-belt/tool/logger/types"
)

// ErrorMonitorLoggerHook forwards every log entry of level Warning or more
// severe to the error monitor. Sending happens in the background; entries
// are dropped if the monitor does not keep up.
type ErrorMonitorLoggerHook struct {
	ErrorMonitor errmontypes.ErrorMonitor
	SendChan     chan ErrorMonitorMessage
}

type ErrorMonitorMessage struct {
	Entry      *loggertypes.Entry
	StackTrace xruntime.PCs
}

func NewErrorMonitorLoggerHook(
	ctx context.Context,
	errorMonitor errmon.ErrorMonitor,
) *ErrorMonitorLoggerHook {
	h := &ErrorMonitorLoggerHook{
		ErrorMonitor: errorMonitor,
		SendChan:     make(chan ErrorMonitorMessage, 10),
	}
	GoSafe(ctx, func() { h.senderLoop(ctx) })
	return h
}

var _ loggertypes.PreHook = (*ErrorMonitorLoggerHook)(nil)

func (h *ErrorMonitorLoggerHook) capture(
	level loggertypes.Level,
	logFn func(l logger.Logger),
) loggertypes.PreHookResult {
	if level > loggertypes.LevelWarning {
		return loggertypes.PreHookResult{}
	}
	emitter := &lastEntryEmitter{}
	logFn(adapter.LoggerFromEmitter(emitter).WithLevel(logger.LevelWarning))
	h.sendReport(emitter.LastEntry)
	return loggertypes.PreHookResult{}
}

func (h *ErrorMonitorLoggerHook) ProcessInput(
	_ belt.TraceIDs,
	level loggertypes.Level,
	args ...any,
) loggertypes.PreHookResult {
	return h.capture(level, func(l logger.Logger) { l.Log(level, args...) })
}

func (h *ErrorMonitorLoggerHook) ProcessInputf(
	_ belt.TraceIDs,
	level loggertypes.Level,
	format string,
	args ...any,
) loggertypes.PreHookResult {
	return h.capture(level, func(l logger.Logger) { l.Logf(level, format, args...) })
}

func (h *ErrorMonitorLoggerHook) ProcessInputFields(
	_ belt.TraceIDs,
	level loggertypes.Level,
	message string,
	fields field.AbstractFields,
) loggertypes.PreHookResult {
	return h.capture(level, func(l logger.Logger) { l.LogFields(level, message, fields) })
}

func copyEntry(entry *loggertypes.Entry) *loggertypes.Entry {
	entryDup := *entry
	if entry.Fields != nil {
		fields := make(field.Fields, 0, entry.Fields.Len())
		entry.Fields.ForEachField(func(f *field.Field) bool {
			fields = append(fields, *f)
			return true
		})
		entryDup.Fields = fields
	}
	return &entryDup
}

func (h *ErrorMonitorLoggerHook) sendReport(entry *loggertypes.Entry) {
	if entry == nil {
		return
	}
	select {
	case h.SendChan <- ErrorMonitorMessage{
		Entry:      copyEntry(entry),
		StackTrace: xruntime.CallerStackTrace(nil),
	}:
	default:
	}
}

func (h *ErrorMonitorLoggerHook) senderLoop(ctx context.Context) {
	for {
		var message ErrorMonitorMessage
		select {
		case <-ctx.Done():
			return
		case message = <-h.SendChan:
		}
		h.ErrorMonitor.Emitter().Emit(&errmontypes.Event{
			Entry:       *message.Entry,
			ExternalIDs: []any{},
			Exception: errmontypes.Exception{
				IsPanic:    message.Entry.Level <= loggertypes.LevelPanic,
				Error:      fmt.Errorf("[%s] %s", message.Entry.Level, message.Entry.Message),
				StackTrace: message.StackTrace,
			},
		})
	}
}
