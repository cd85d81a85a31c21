package chat

import "context"

// Adapter is the base interface every platform integration must
// implement. Every other capability (editing, reactions, streaming,
// webhooks, …) is declared as a separate optional interface below; the
// core type-asserts against them rather than probing method names by
// reflection (spec.md §9).
type Adapter interface {
	// ChannelType names the platform this adapter integrates
	// ("telegram", "discord", …). It is the key Chat.Adapters is indexed
	// by and the adapter_name carried on every Incoming/EventEnvelope it
	// produces.
	ChannelType() string

	// TransformIncoming normalizes a raw platform payload into an
	// Incoming value.
	TransformIncoming(raw map[string]any) (Incoming, error)

	// SendMessage posts text to a room and returns the normalized send
	// result.
	SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]any) (Response, error)
}

// CapabilityDeclarer lets an adapter declare its own capability matrix
// instead of relying purely on reflective defaulting (spec.md §4.2). A
// declared matrix is merged over the computed default.
type CapabilityDeclarer interface {
	Capabilities() CapabilityMatrix
}

// Initializer performs adapter-specific setup (credential exchange,
// connection warm-up, …) before the adapter serves traffic.
type Initializer interface {
	Initialize(ctx context.Context, opts map[string]any) error
}

// Shutdowner performs adapter-specific teardown.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// MessageEditor updates an already-sent message.
type MessageEditor interface {
	EditMessage(ctx context.Context, externalRoomID, externalMessageID, text string, opts map[string]any) (Response, error)
}

// MessageDeleter deletes an already-sent message.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, externalRoomID, externalMessageID string) error
}

// TypingNotifier signals a "typing" indicator to the platform.
type TypingNotifier interface {
	StartTyping(ctx context.Context, externalRoomID string) error
}

// MetadataFetcher retrieves channel/room metadata.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, externalRoomID string) (ChannelInfo, error)
}

// ThreadFetcher retrieves a thread's identifying metadata.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, externalRoomID, externalThreadID string) (Thread, error)
}

// MessageFetcher retrieves a single message by id.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, externalRoomID, externalMessageID string) (Message, error)
}

// Reactor adds/removes emoji reactions on a message.
type Reactor interface {
	AddReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string) error
	RemoveReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string) error
}

// EphemeralPoster posts a message visible to a single user only.
type EphemeralPoster interface {
	PostEphemeral(ctx context.Context, externalRoomID, externalUserID, text string, opts map[string]any) (EphemeralMessage, error)
}

// DMOpener opens (or resolves) a direct-message room with a user. It backs
// the post_ephemeral DM fallback.
type DMOpener interface {
	OpenDM(ctx context.Context, externalUserID string) (externalRoomID string, err error)
}

// ChannelPoster posts a message addressed to a channel as a whole, as
// opposed to a thread within it.
type ChannelPoster interface {
	PostChannelMessage(ctx context.Context, externalRoomID, text string, opts map[string]any) (Response, error)
}

// StreamChunk is one piece of a streamed outbound post.
type StreamChunk struct {
	Text  string
	Final bool
}

// Streamer opens a token-by-token streaming send.
type Streamer interface {
	Stream(ctx context.Context, externalRoomID string, chunks <-chan StreamChunk, opts map[string]any) (Response, error)
}

// ModalOpener opens an interactive modal/dialog surface.
type ModalOpener interface {
	OpenModal(ctx context.Context, triggerID string, modal map[string]any) (ModalResult, error)
}

// MessagesFetcher retrieves a page of a thread's history.
type MessagesFetcher interface {
	FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts FetchOptions) (MessagePage, error)
}

// ChannelMessagesFetcher retrieves a page of a channel's history (not
// scoped to a single thread).
type ChannelMessagesFetcher interface {
	FetchChannelMessages(ctx context.Context, externalRoomID string, opts FetchOptions) (MessagePage, error)
}

// ThreadLister lists the threads within a channel.
type ThreadLister interface {
	ListThreads(ctx context.Context, externalRoomID string, opts FetchOptions) (ThreadPage, error)
}

// WebhookHandler lets an adapter take over the entire webhook request (a
// rarely-needed escape hatch from the default verify/parse/format
// pipeline in webhook.go).
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, req WebhookRequest) (WebhookResponse, error)
}

// WebhookVerifier checks a webhook request's authenticity (signature,
// shared secret, …). Returning ErrInvalidWebhookSecret or
// ErrInvalidSignature (or an error wrapping one) maps to a 401; any other
// error maps to a 400.
type WebhookVerifier interface {
	VerifyWebhook(ctx context.Context, req WebhookRequest) error
}

// EventParser parses a verified webhook request into a typed
// EventEnvelope. Returning (nil, nil) signals a no-op (e.g. a platform
// health-check ping) with no envelope to route.
type EventParser interface {
	ParseEvent(ctx context.Context, req WebhookRequest) (*EventEnvelope, error)
}

// WebhookResponseFormatter lets an adapter customize how routing outcomes
// become HTTP-shaped responses (status/body conventions differ by
// platform for e.g. slash-command acknowledgement).
type WebhookResponseFormatter interface {
	FormatWebhookResponse(outcome RouteOutcome, opts map[string]any) (WebhookResponse, error)
}

// ChildSpec is an opaque description of a long-poll or gateway listener
// the host process should supervise on this adapter's behalf. The core
// never starts or supervises these itself (spec.md §1) — it only carries
// the adapter's request through to host code.
type ChildSpec struct {
	Name string
	Opts map[string]any
}

// ListenerSpecProvider lets an adapter request supervised background
// listeners (long poll loops, gateway connections) from host code.
type ListenerSpecProvider interface {
	ListenerChildSpecs() []ChildSpec
}
