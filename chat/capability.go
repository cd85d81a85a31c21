package chat

// Support is the per-operation support status a Capabilities matrix
// declares for an adapter operation.
type Support string

const (
	Native      Support = "native"
	Fallback    Support = "fallback"
	Unsupported Support = "unsupported"
)

// Operation names the capability-matrix keys. These mirror the optional
// Adapter interfaces in adapter.go one-to-one.
type Operation string

const (
	OpInitialize            Operation = "initialize"
	OpShutdown              Operation = "shutdown"
	OpEditMessage           Operation = "edit_message"
	OpDeleteMessage         Operation = "delete_message"
	OpStartTyping           Operation = "start_typing"
	OpFetchMetadata         Operation = "fetch_metadata"
	OpFetchThread           Operation = "fetch_thread"
	OpFetchMessage          Operation = "fetch_message"
	OpAddReaction           Operation = "add_reaction"
	OpRemoveReaction        Operation = "remove_reaction"
	OpPostEphemeral         Operation = "post_ephemeral"
	OpPostChannelMessage    Operation = "post_channel_message"
	OpStream                Operation = "stream"
	OpOpenModal             Operation = "open_modal"
	OpFetchMessages         Operation = "fetch_messages"
	OpFetchChannelMessages  Operation = "fetch_channel_messages"
	OpListThreads           Operation = "list_threads"
	OpOpenDM                Operation = "open_dm"
	OpHandleWebhook         Operation = "handle_webhook"
	OpVerifyWebhook         Operation = "verify_webhook"
	OpParseEvent            Operation = "parse_event"
	OpFormatWebhookResponse Operation = "format_webhook_response"
	OpListenerChildSpecs    Operation = "listener_child_specs"
)

// CapabilityMatrix maps an operation name to its support status.
type CapabilityMatrix map[Operation]Support

// defaultFallbackOps are the optional operations that synthesize a
// Fallback default when the adapter does not declare its own matrix and
// does not implement the callback (spec.md §4.2).
var defaultFallbackOps = map[Operation]bool{
	OpInitialize:            true,
	OpShutdown:              true,
	OpPostEphemeral:         true,
	OpPostChannelMessage:    true,
	OpStream:                true,
	OpHandleWebhook:         true,
	OpVerifyWebhook:         true,
	OpParseEvent:            true,
	OpFormatWebhookResponse: true,
	OpFetchMetadata:         true,
	OpFetchThread:           true,
	OpFetchMessage:         true,
}

// allOperations lists every capability-matrix key the core knows about.
var allOperations = []Operation{
	OpInitialize, OpShutdown, OpEditMessage, OpDeleteMessage, OpStartTyping,
	OpFetchMetadata, OpFetchThread, OpFetchMessage, OpAddReaction, OpRemoveReaction,
	OpPostEphemeral, OpPostChannelMessage, OpStream, OpOpenModal, OpFetchMessages,
	OpFetchChannelMessages, OpListThreads, OpOpenDM, OpHandleWebhook, OpVerifyWebhook,
	OpParseEvent, OpFormatWebhookResponse, OpListenerChildSpecs,
}

// implements reports whether adapter a implements the optional interface
// backing operation op, by type-asserting against the optional interfaces
// declared in adapter.go. This is the one place capability defaulting
// reflects on adapter shape; it never probes a "does this method exist by
// name" style, only concrete interface satisfaction (spec.md §9).
func implements(a Adapter, op Operation) bool {
	switch op {
	case OpInitialize:
		_, ok := a.(Initializer)
		return ok
	case OpShutdown:
		_, ok := a.(Shutdowner)
		return ok
	case OpEditMessage:
		_, ok := a.(MessageEditor)
		return ok
	case OpDeleteMessage:
		_, ok := a.(MessageDeleter)
		return ok
	case OpStartTyping:
		_, ok := a.(TypingNotifier)
		return ok
	case OpFetchMetadata:
		_, ok := a.(MetadataFetcher)
		return ok
	case OpFetchThread:
		_, ok := a.(ThreadFetcher)
		return ok
	case OpFetchMessage:
		_, ok := a.(MessageFetcher)
		return ok
	case OpAddReaction, OpRemoveReaction:
		_, ok := a.(Reactor)
		return ok
	case OpPostEphemeral:
		_, ok := a.(EphemeralPoster)
		return ok
	case OpPostChannelMessage:
		_, ok := a.(ChannelPoster)
		return ok
	case OpStream:
		_, ok := a.(Streamer)
		return ok
	case OpOpenModal:
		_, ok := a.(ModalOpener)
		return ok
	case OpFetchMessages:
		_, ok := a.(MessagesFetcher)
		return ok
	case OpFetchChannelMessages:
		_, ok := a.(ChannelMessagesFetcher)
		return ok
	case OpListThreads:
		_, ok := a.(ThreadLister)
		return ok
	case OpOpenDM:
		_, ok := a.(DMOpener)
		return ok
	case OpHandleWebhook:
		_, ok := a.(WebhookHandler)
		return ok
	case OpVerifyWebhook:
		_, ok := a.(WebhookVerifier)
		return ok
	case OpParseEvent:
		_, ok := a.(EventParser)
		return ok
	case OpFormatWebhookResponse:
		_, ok := a.(WebhookResponseFormatter)
		return ok
	case OpListenerChildSpecs:
		_, ok := a.(ListenerSpecProvider)
		return ok
	default:
		return false
	}
}

// ResolveCapabilities computes an adapter's effective capability matrix:
// a declared matrix (via CapabilityDeclarer) is merged over the reflective
// default (Native when implemented, Fallback for the operations that have
// a documented fallback, Unsupported otherwise).
func ResolveCapabilities(a Adapter) CapabilityMatrix {
	matrix := make(CapabilityMatrix, len(allOperations))
	for _, op := range allOperations {
		switch {
		case implements(a, op):
			matrix[op] = Native
		case defaultFallbackOps[op]:
			matrix[op] = Fallback
		default:
			matrix[op] = Unsupported
		}
	}
	if declarer, ok := a.(CapabilityDeclarer); ok {
		for op, support := range declarer.Capabilities() {
			matrix[op] = support
		}
	}
	return matrix
}

// MissingCallback is one offender returned by ValidateCapabilities: a
// capability declared Native whose underlying operation is not actually
// implemented by the adapter.
type MissingCallback struct {
	Operation Operation
}

// ValidateCapabilities enforces spec.md §4.2's invariant: every capability
// declared Native must have its underlying callback implemented. It
// returns the (possibly empty) list of offenders; callers treat a
// non-empty result as a validation failure (spec.md §8 invariant 7).
func ValidateCapabilities(a Adapter) []MissingCallback {
	var declared CapabilityMatrix
	if declarer, ok := a.(CapabilityDeclarer); ok {
		declared = declarer.Capabilities()
	}
	var offenders []MissingCallback
	for op, support := range declared {
		if support == Native && !implements(a, op) {
			offenders = append(offenders, MissingCallback{Operation: op})
		}
	}
	return offenders
}
