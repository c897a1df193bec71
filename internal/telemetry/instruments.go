package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/savings-tracker"

// Counter names.
const (
	Contributions      = "savings.contributions"
	GoalsCompleted     = "savings.goals.completed"
	AutomationRuns     = "savings.automation.contributions"
	RemindersSent      = "savings.reminders.sent"
	PersistFailures    = "savings.persist.failures"
	EventsPublished    = "savings.events.published"
	BotCommandsHandled = "savings.bot.commands"
)

var counters sync.Map

func counter(name string) metric.Int64Counter {
	if c, ok := counters.Load(name); ok {
		return c.(metric.Int64Counter)
	}
	c, err := otel.Meter(instrumentationName).Int64Counter(name)
	if err != nil {
		otel.Handle(err)
	}
	actual, _ := counters.LoadOrStore(name, c)
	return actual.(metric.Int64Counter)
}

// Add increments the named counter by n.
func Add(ctx context.Context, name string, n int64, attrs ...attribute.KeyValue) {
	if n == 0 {
		return
	}
	counter(name).Add(ctx, n, metric.WithAttributes(attrs...))
}

// Tracer returns the tracer of the application.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span named name on the application tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}
