package chat

import "errors"

// Sentinel errors surfaced by the router/outbound facade. The webhook
// pipeline (see webhook.go) is the single place that converts these (and
// any panic) into a typed WebhookResponse; everywhere else they propagate
// to the caller unchanged.
var (
	// ErrUnsupported is returned by the outbound facade when the target
	// adapter's capability for the requested operation is Unsupported.
	ErrUnsupported = errors.New("chat: operation unsupported by adapter")

	// ErrUnknownAdapter is returned when resolving an adapter name that is
	// not present in Chat.Adapters.
	ErrUnknownAdapter = errors.New("chat: unknown adapter")

	// ErrInvalidWebhookSecret is the canonical 401 reason for a failed
	// webhook secret check.
	ErrInvalidWebhookSecret = errors.New("chat: invalid webhook secret")

	// ErrInvalidSignature is the canonical 401 reason for a failed webhook
	// signature check.
	ErrInvalidSignature = errors.New("chat: invalid signature")
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validation is the structured error raised by schema-validating
// constructors (spec.md §4.1). It carries the subject (the kind of value
// being constructed), the rejected input, and one FieldError per violated
// field path.
type Validation struct {
	Subject string
	Input   any
	Fields  []FieldError
}

func (v *Validation) Error() string {
	if len(v.Fields) == 0 {
		return "chat: validation failed for " + v.Subject
	}
	msg := "chat: validation failed for " + v.Subject + ":"
	for _, f := range v.Fields {
		msg += " " + f.Path + ": " + f.Message + ";"
	}
	return msg
}

func newValidation(subject string, input any, fields ...FieldError) *Validation {
	return &Validation{Subject: subject, Input: input, Fields: fields}
}

// IngressTransport identifies the transport that produced an Ingress error,
// for cross-transport diagnostics (spec.md §7, "Ingress").
type IngressTransport string

// Ingress classifies a transport-level failure, wrapping the transport,
// the upstream adapter error, and a short machine reason.
type Ingress struct {
	Transport IngressTransport
	Reason    string
	Cause     error
}

func (e *Ingress) Error() string {
	msg := "chat: ingress failure [" + string(e.Transport) + "] " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Ingress) Unwrap() error { return e.Cause }
