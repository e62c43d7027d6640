package observability

import logger "github.com/facebookincubator/go-belt/tool/logger/types"

// lastEntryEmitter keeps only the most recent entry.
type lastEntryEmitter struct {
	LastEntry *logger.Entry
}

var _ logger.Emitter = (*lastEntryEmitter)(nil)

func (e *lastEntryEmitter) Emit(entry *logger.Entry) {
	e.LastEntry = entry
}

func (e *lastEntryEmitter) Flush() {}
