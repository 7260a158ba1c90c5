package tracer

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type TSpan struct {
	mu       sync.Mutex
	children []*TSpan
	start    time.Time
	stop     time.Time
	name     string
	tid      int64
}

type SpanOptions func(*TSpan)

func WithNewTid(span *TSpan) {
	span.tid = uutid.Add(1)
}

func Named(name string) SpanOptions {
	return func(span *TSpan) {
		span.name = name
	}
}

type spanContextKeyType int

var spanContextKey spanContextKeyType

var uutid atomic.Int64

// Open starts a child of the span stored in ctx, or a new root span.
func Open(ctx context.Context, options ...SpanOptions) (context.Context, *TSpan) {
	parentSpan := FromContext(ctx)
	newSpan := &TSpan{start: time.Now(), name: opname()}
	if parentSpan != nil {
		newSpan.tid = parentSpan.tid
		parentSpan.mu.Lock()
		parentSpan.children = append(parentSpan.children, newSpan)
		parentSpan.mu.Unlock()
	} else {
		options = append(options, WithNewTid)
	}
	for _, opt := range options {
		opt(newSpan)
	}
	return context.WithValue(ctx, spanContextKey, newSpan), newSpan
}

func WithSpan(ctx context.Context, span *TSpan) context.Context {
	return context.WithValue(ctx, spanContextKey, span)
}

func FromContext(ctx context.Context) *TSpan {
	parentSpan, _ := ctx.Value(spanContextKey).(*TSpan)
	return parentSpan
}

func (s *TSpan) Close() {
	s.mu.Lock()
	s.stop = time.Now()
	s.mu.Unlock()
}

func (s *TSpan) Name() string {
	return s.name
}

// Duration is the span length so far if the span is still open.
func (s *TSpan) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop.IsZero() {
		return time.Since(s.start)
	}
	return s.stop.Sub(s.start)
}

func (s *TSpan) PrintTrace() ([]byte, error) {
	return json.Marshal(s.chromeTraceEvents())
}

type chromeTrace struct {
	TraceEvents chromeTraceEvents `json:"traceEvents"`
}

type chromeTraceEvents []chromeTraceEvent

type chromeTraceEvent struct {
	PID  int    `json:"pid"`
	TID  int    `json:"tid"`
	Ts   int64  `json:"ts"`  // microseconds
	Dur  int64  `json:"dur"` // microseconds
	PH   string `json:"ph"`  // X - complete event
	Name string `json:"name"`
	Args any    `json:"args,omitempty"`
}

func (s *TSpan) chromeTraceEvents() chromeTrace {
	if s == nil {
		return chromeTrace{}
	}
	var queue []*TSpan
	startTS := s.start
	var chromeEvents chromeTraceEvents
	queue = append(queue, s)
	for len(queue) > 0 {
		var span = queue[0]

		span.mu.Lock()
		start := span.start
		finish := span.stop
		children := append([]*TSpan(nil), span.children...)
		span.mu.Unlock()
		if finish.IsZero() {
			finish = time.Now()
		}

		chromeEvents = append(chromeEvents, chromeTraceEvent{
			PID:  1,
			TID:  int(span.tid),
			Ts:   start.Sub(startTS).Microseconds(),
			Dur:  finish.Sub(start).Microseconds(),
			PH:   "X",
			Name: span.name,
		})

		queue = queue[1:]
		queue = append(queue, children...)
	}
	return chromeTrace{chromeEvents}
}

func opname() string {
	pc, _, line, ok := runtime.Caller(2)
	if ok {
		return fmt.Sprintf("%s:%d", runtime.FuncForPC(pc).Name(), line)
	}
	return ""
}
