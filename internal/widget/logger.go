package widget

// Event names reported to the EventLogger.
const (
	EventInit       = "initWidget"
	EventSwitchTab  = "switchTab"
	EventExport     = "exportBtnClick"
	EventDelete     = "deleteBtnClick"
	EventToggleView = "toggleBtnClick"
)

// EventLogger receives fire-and-forget interaction events.
type EventLogger interface {
	Log(event string, payload interface{})
}

// NopLogger discards every event.
type NopLogger struct{}

// Log implements EventLogger.
func (NopLogger) Log(string, interface{}) {}

// MultiLogger fans events out to several loggers.
// Nil loggers are skipped and a panicking logger does not stop the others.
type MultiLogger struct {
	loggers []EventLogger
}

// Ensure MultiLogger implements EventLogger.
var _ EventLogger = (*MultiLogger)(nil)

// NewMultiLogger creates a MultiLogger, filtering out nil loggers.
func NewMultiLogger(loggers ...EventLogger) *MultiLogger {
	filtered := make([]EventLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			filtered = append(filtered, l)
		}
	}
	return &MultiLogger{loggers: filtered}
}

// Len returns the number of non-nil loggers.
func (m *MultiLogger) Len() int { return len(m.loggers) }

// Log forwards the event to every logger.
func (m *MultiLogger) Log(event string, payload interface{}) {
	for _, l := range m.loggers {
		safeCall(func() { l.Log(event, payload) })
	}
}

func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
