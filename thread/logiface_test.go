package thread

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logifaceEvent is the smallest viable logiface.Event: it implements only
// the two mandatory methods and embeds UnimplementedEvent for everything
// else, the same minimal shape logiface's own tests use for a baseline
// event.
type logifaceEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	fields map[string]any
}

func (e *logifaceEvent) Level() logiface.Level { return e.level }

func (e *logifaceEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

type logifaceEventWriter struct {
	buf *bytes.Buffer
}

func (w *logifaceEventWriter) Write(e *logifaceEvent) error {
	w.buf.WriteString(e.level.String())
	for k, v := range e.fields {
		w.buf.WriteByte(' ')
		w.buf.WriteString(k)
		w.buf.WriteByte('=')
		w.buf.WriteString(formatField(v))
	}
	w.buf.WriteByte('\n')
	return nil
}

func formatField(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "?"
}

// logifaceSchedLogger adapts a typed logiface.Logger onto the Logger
// interface the scheduler calls through, so a caller can plug the
// ecosystem's structured logging library in where WriterLogger is the
// built-in default.
type logifaceSchedLogger struct {
	l *logiface.Logger[*logifaceEvent]
}

func (a *logifaceSchedLogger) IsEnabled(level LogLevel) bool {
	return a.l.Level() >= toLogifaceLevel(level)
}

func (a *logifaceSchedLogger) Log(entry LogEntry) {
	b := a.l.Build(toLogifaceLevel(entry.Level))
	if b == nil {
		return
	}
	b.Str("category", entry.Category).Log(entry.Message)
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

var _ Logger = (*logifaceSchedLogger)(nil)

// TestBootLogsThroughLogifaceAdapter exercises the scheduler's Logger
// plumbing against a real logiface.Logger instance, confirming a caller
// can swap in the ecosystem's structured logging library without the
// scheduler needing to know about it.
func TestBootLogsThroughLogifaceAdapter(t *testing.T) {
	var buf bytes.Buffer
	typed := logiface.New[*logifaceEvent](
		logiface.WithEventFactory[*logifaceEvent](logiface.NewEventFactoryFunc(func(level logiface.Level) *logifaceEvent {
			return &logifaceEvent{level: level}
		})),
		logiface.WithWriter[*logifaceEvent](&logifaceEventWriter{buf: &buf}),
		logiface.WithLevel[*logifaceEvent](logiface.LevelDebug),
	)

	s := bootForTest(t, WithLogger(&logifaceSchedLogger{l: typed}))
	_, err := s.Create("worker", PriDefault-1, func(any) {}, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "category=create")
}
