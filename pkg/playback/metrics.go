package playback

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the playback counters; a nil *Metrics disables them.
type Metrics struct {
	FramesPresented prometheus.Counter
	FramesSkipped   prometheus.Counter
	Passes          prometheus.Counter
	FilesSkipped    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledplayer",
			Subsystem: "playback",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		FramesPresented: newCounter("frames_presented_total", "Frames handed to the display or written to the stream."),
		FramesSkipped:   newCounter("frames_skipped_total", "Frames lost to decoding errors."),
		Passes:          newCounter("passes_total", "Completed or interrupted passes over an input file."),
		FilesSkipped:    newCounter("files_skipped_total", "Input files that could not be played."),
	}
	if reg != nil {
		reg.MustRegister(m.FramesPresented, m.FramesSkipped, m.Passes, m.FilesSkipped)
	}
	return m
}

func (m *Metrics) framePresented() {
	if m == nil {
		return
	}
	m.FramesPresented.Inc()
}

func (m *Metrics) frameSkipped() {
	if m == nil {
		return
	}
	m.FramesSkipped.Inc()
}

func (m *Metrics) passFinished() {
	if m == nil {
		return
	}
	m.Passes.Inc()
}

func (m *Metrics) fileSkipped() {
	if m == nil {
		return
	}
	m.FilesSkipped.Inc()
}
