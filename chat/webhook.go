package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// WebhookRequest is the transport-agnostic shape of an inbound webhook
// delivery. HTTP server plumbing (reading the body, matching routes) is a
// host-code concern; this core only consumes the normalized request
// (spec.md §1 Non-goals, §4.5).
type WebhookRequest struct {
	AdapterName string
	Method      string
	Headers     map[string]string
	Query       map[string]string
	Body        []byte
}

// WebhookResponse is the normalized result the host's HTTP layer should
// write back to the caller.
type WebhookResponse struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

// webhookErrorBody is the canonical shape of every error body this pipeline
// emits (spec.md §6): "error" is always present, "adapter_name" only for the
// unknown-adapter case, "reason" only where the error carries one.
type webhookErrorBody struct {
	Error       string `json:"error"`
	AdapterName string `json:"adapter_name,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// jsonResponse marshals body into a WebhookResponse. body is always one of
// this file's own small structs, so a marshal failure here would itself be
// a bug — the fallback exists only so that bug surfaces as a response
// rather than a panic.
func jsonResponse(status int, body any) WebhookResponse {
	b, err := json.Marshal(body)
	if err != nil {
		return WebhookResponse{Status: 500, Body: []byte(`{"error":"webhook_response_format_error"}`)}
	}
	return WebhookResponse{Status: status, Body: b}
}

// HandleWebhookRequest implements C6: verify → parse → route → format,
// with a panic-recovery boundary so a misbehaving adapter callback can
// never crash the host process (spec.md §4.5, §7). It always returns a
// WebhookResponse; errors are reflected in the status code, never as a
// second return value.
func HandleWebhookRequest(ctx context.Context, c *Chat, adapterName string, req WebhookRequest) (result *Chat, resp WebhookResponse) {
	result = c
	defer func() {
		if r := recover(); r != nil {
			if c.Logger != nil {
				c.Logger.Error("webhook handler panicked", slog.Any("recovered", r))
			}
			result = c
			resp = jsonResponse(500, webhookErrorBody{Error: "webhook_exception", Reason: fmt.Sprint(r)})
		}
	}()

	a, err := c.Adapter(adapterName)
	if err != nil {
		return c, jsonResponse(404, webhookErrorBody{Error: "unknown_adapter", AdapterName: adapterName})
	}
	req.AdapterName = adapterName

	if handler, ok := a.(WebhookHandler); ok {
		wr, err := handler.HandleWebhook(ctx, req)
		if err != nil {
			return c, errorResponse(c, err)
		}
		return c, wr
	}

	if err := verifyWebhook(ctx, a, req); err != nil {
		return c, verifyErrorResponse(err)
	}

	env, err := parseEvent(ctx, a, adapterName, req)
	if err != nil {
		return c, errorResponse(c, err)
	}
	if env == nil {
		return c, formatOutcome(a, RouteOutcome{NoOp: true})
	}

	nextChat, routed, err := Route(ctx, c, adapterName, env)
	if err != nil {
		return nextChat, formatOutcome(a, RouteOutcome{Envelope: routed, Err: err})
	}
	return nextChat, formatOutcome(a, RouteOutcome{Envelope: routed})
}

// verifyWebhook runs the adapter's WebhookVerifier if it implements one.
// Adapters that declare no verifier are treated as always-valid (spec.md
// §4.2's Fallback default for verify_webhook).
func verifyWebhook(ctx context.Context, a Adapter, req WebhookRequest) error {
	verifier, ok := a.(WebhookVerifier)
	if !ok {
		return nil
	}
	return verifier.VerifyWebhook(ctx, req)
}

// parseEvent runs the adapter's EventParser if it implements one, else
// falls back to TransformIncoming + EnsureEnvelopeFromMap treating the body
// as a message event (spec.md §4.2's Fallback default for parse_event).
func parseEvent(ctx context.Context, a Adapter, adapterName string, req WebhookRequest) (*EventEnvelope, error) {
	if parser, ok := a.(EventParser); ok {
		return parser.ParseEvent(ctx, req)
	}

	var raw map[string]any
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &raw); err != nil {
			return nil, newValidation("webhook_body", string(req.Body), FieldError{
				Path: "body", Message: err.Error(),
			})
		}
	}
	in, err := a.TransformIncoming(raw)
	if err != nil {
		return nil, err
	}
	env, err := EnsureEnvelope(map[string]any{
		"adapter_name": adapterName,
		"event_type":   string(EventMessage),
	}, adapterName)
	if err != nil {
		return nil, err
	}
	env.PayloadMessage = &in
	return env, nil
}

// formatOutcome runs the adapter's WebhookResponseFormatter if it
// implements one, else applies the canonical status mapping: a no-op
// outcome is 200 (see note below), a successful route is 200, and an error
// is mapped by errorResponseFromOutcome (spec.md §4.5, §7).
func formatOutcome(a Adapter, outcome RouteOutcome) WebhookResponse {
	if formatter, ok := a.(WebhookResponseFormatter); ok {
		wr, err := formatter.FormatWebhookResponse(outcome, nil)
		if err == nil {
			return wr
		}
	}
	if outcome.Err != nil {
		return errorResponseFromOutcome(outcome.Err)
	}
	// Without a custom formatter, a no-op parse result is indistinguishable
	// from a successful route at the HTTP layer — both report 200 {"ok":true}.
	// Only an adapter-supplied WebhookResponseFormatter can surface the
	// noop distinction (e.g. as 204), since there is no canonical default
	// for it (spec.md §8 scenario S6).
	return WebhookResponse{Status: 200, Body: []byte(`{"ok":true}`)}
}

// verifyErrorResponse maps a VerifyWebhook failure to the canonical 401
// body for the two auth sentinels, distinguishing secret from signature
// failures, and to a 400 invalid_webhook_request for anything else
// (spec.md §6).
func verifyErrorResponse(err error) WebhookResponse {
	switch {
	case errors.Is(err, ErrInvalidWebhookSecret):
		return jsonResponse(401, webhookErrorBody{Error: "invalid_webhook_secret"})
	case errors.Is(err, ErrInvalidSignature):
		return jsonResponse(401, webhookErrorBody{Error: "invalid_signature"})
	default:
		return jsonResponse(400, webhookErrorBody{Error: "invalid_webhook_request", Reason: err.Error()})
	}
}

// errorResponse maps a parse/route failure and logs it before delegating
// to errorResponseFromOutcome.
func errorResponse(c *Chat, err error) WebhookResponse {
	if c.Logger != nil {
		c.Logger.Error("webhook request failed", slog.Any("error", err))
	}
	return errorResponseFromOutcome(err)
}

// errorResponseFromOutcome maps a parse/route failure to the canonical
// body: malformed input, an unsupported capability, and an unrecognized
// event type are all client errors (400 invalid_webhook_request with the
// underlying reason); everything else is a 500 webhook_exception
// (spec.md §6).
func errorResponseFromOutcome(err error) WebhookResponse {
	var v *Validation
	if errors.As(err, &v) {
		return jsonResponse(400, webhookErrorBody{Error: "invalid_webhook_request", Reason: err.Error()})
	}
	var unsupported *Ingress
	if errors.As(err, &unsupported) && errors.Is(unsupported.Cause, ErrUnsupported) {
		return jsonResponse(400, webhookErrorBody{Error: "invalid_webhook_request", Reason: err.Error()})
	}
	var unsupportedEventType *ErrUnsupportedEventType
	if errors.As(err, &unsupportedEventType) {
		return jsonResponse(400, webhookErrorBody{Error: "invalid_webhook_request", Reason: err.Error()})
	}
	return jsonResponse(500, webhookErrorBody{Error: "webhook_exception", Reason: err.Error()})
}
