// Package tracer is a small tracing abstraction over OpenTelemetry so service
// code does not import otel APIs directly.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span and marks it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an int64 attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the credential service.
const (
	SpanIssue            = "credential.issue"
	SpanGet              = "credential.get"
	SpanList             = "credential.list"
	SpanRevoke           = "credential.revoke"
	SpanRevocationStatus = "credential.revocation_status"
	SpanDisclose         = "credential.disclose"
)

// Attribute keys used by the credential service.
const (
	AttrCredentialID    = "credential.id"
	AttrRevoked         = "credential.revoked"
	AttrCount           = "credential.count"
	AttrDisclosedFields = "disclosure.fields"
	AttrProofs          = "disclosure.proofs"
)

// Event names used by the credential service.
const (
	EventPublished = "event.published"
)
