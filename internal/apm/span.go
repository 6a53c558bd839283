package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

// ErrorCodeKey is set on failed spans whose error carries an apperror code.
const ErrorCodeKey = attribute.Key("error.code")

type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	AddEvent(name string, attrs ...attribute.KeyValue)
	NoticeError(err error)
	End()
}

type traceSpan struct {
	span trace.Span
}

func (s *traceSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

func (s *traceSpan) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// NoticeError records err and marks the span failed. nil is ignored.
func (s *traceSpan) NoticeError(err error) {
	if err == nil {
		return
	}
	if apperror.IsAppError(err) {
		s.span.SetAttributes(ErrorCodeKey.String(string(apperror.GetCode(err))))
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *traceSpan) End() {
	s.span.End()
}
