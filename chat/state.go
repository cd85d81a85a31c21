package chat

import (
	"log/slog"
	"strings"
)

// DefaultDedupeLimit is the default bound on the dedupe FIFO, overridable
// per-Chat via Metadata["dedupe_limit"] (spec.md §3, §5).
const DefaultDedupeLimit = 1000

// dedupeKey is the (adapter, external_message_id) pair spec.md §3 dedupes
// on.
type dedupeKey struct {
	Adapter           string
	ExternalMessageID string
}

// Chat is the root state value: the adapter map, registered handlers,
// subscriptions, dedup set, and per-thread/channel state. It is threaded
// functionally — every dispatch operation returns an updated *Chat rather
// than mutating the receiver in place (spec.md §3, §5). Callers who share
// a single *Chat across goroutines must serialize access themselves; the
// core holds no internal locks (spec.md §5).
type Chat struct {
	ID       string
	UserName string

	Adapters      map[string]Adapter
	Subscriptions map[string]struct{}

	Dedupe      map[dedupeKey]struct{}
	DedupeOrder []dedupeKey

	Handlers HandlerTable

	ThreadState  map[string]map[string]any
	ChannelState map[string]map[string]any

	Metadata    map[string]any
	Initialized bool

	Logger *slog.Logger

	// mentionRe caches the compiled mention pattern for UserName, compiled
	// once rather than on every Mentioned() call (spec.md §9 — "recompiling
	// on every dispatch is forbidden"). UserName is set once at
	// construction and never mutated afterward, so the cache never goes
	// stale across clone()'s shallow copies.
	mentionRe *compiledPattern
}

// New creates an empty Chat for the given bot user_name. The id is
// generated; pass options to seed adapters, metadata, or a logger.
func New(userName string, opts ...Option) *Chat {
	c := &Chat{
		ID:            newID(),
		UserName:      userName,
		Adapters:      map[string]Adapter{},
		Subscriptions: map[string]struct{}{},
		Dedupe:        map[dedupeKey]struct{}{},
		ThreadState:   map[string]map[string]any{},
		ChannelState:  map[string]map[string]any{},
		Metadata:      map[string]any{},
		Logger:        slog.Default().With(slog.String("component", "chat")),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mentionRe, _ = mentionPattern(c.UserName)
	return c
}

// Option configures a Chat at construction time.
type Option func(*Chat)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chat) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMetadata seeds Chat.Metadata.
func WithMetadata(meta map[string]any) Option {
	return func(c *Chat) {
		for k, v := range meta {
			c.Metadata[k] = v
		}
	}
}

// WithAdapter registers an adapter at construction time.
func WithAdapter(a Adapter) Option {
	return func(c *Chat) {
		if a != nil {
			c.Adapters[trimLower(a.ChannelType())] = a
		}
	}
}

// clone shallow-copies c so a dispatch step can hand back a distinct Chat
// value without mutating the caller's original. Only the top-level struct
// is copied; nested maps/slices are copied lazily by withX helpers only
// when that particular field is actually touched.
func (c *Chat) clone() *Chat {
	cp := *c
	return &cp
}

// RegisterAdapter returns a new Chat with adapter registered, keyed by its
// ChannelType().
func (c *Chat) RegisterAdapter(a Adapter) *Chat {
	cp := c.clone()
	adapters := make(map[string]Adapter, len(c.Adapters)+1)
	for k, v := range c.Adapters {
		adapters[k] = v
	}
	adapters[trimLower(a.ChannelType())] = a
	cp.Adapters = adapters
	return cp
}

// Adapter resolves an adapter by name, or ErrUnknownAdapter.
func (c *Chat) Adapter(name string) (Adapter, error) {
	a, ok := c.Adapters[trimLower(name)]
	if !ok {
		return nil, ErrUnknownAdapter
	}
	return a, nil
}

// Subscribe returns a new Chat with threadID added to Subscriptions.
func (c *Chat) Subscribe(threadID string) *Chat {
	cp := c.clone()
	subs := cloneStringSet(c.Subscriptions)
	subs[threadID] = struct{}{}
	cp.Subscriptions = subs
	return cp
}

// Unsubscribe returns a new Chat with threadID removed from
// Subscriptions.
func (c *Chat) Unsubscribe(threadID string) *Chat {
	cp := c.clone()
	subs := cloneStringSet(c.Subscriptions)
	delete(subs, threadID)
	cp.Subscriptions = subs
	return cp
}

// IsSubscribed reports whether threadID routes to subscribed handlers.
func (c *Chat) IsSubscribed(threadID string) bool {
	_, ok := c.Subscriptions[threadID]
	return ok
}

// DedupeLimit reads Chat.Metadata["dedupe_limit"], defaulting to
// DefaultDedupeLimit.
func (c *Chat) DedupeLimit() int {
	if c.Metadata == nil {
		return DefaultDedupeLimit
	}
	switch v := c.Metadata["dedupe_limit"].(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return DefaultDedupeLimit
}

// AdapterOpts reads Chat.Metadata["adapter_opts"], a keyword-like option
// map passed to adapter Initialize/Shutdown calls by host code. Any other
// value type under that key yields nil.
func (c *Chat) AdapterOpts() map[string]any {
	if c.Metadata == nil {
		return nil
	}
	if v, ok := c.Metadata["adapter_opts"].(map[string]any); ok {
		return v
	}
	return nil
}

// StateMode selects how SetState merges a new value into thread/channel
// state.
type StateMode int

const (
	// StateReplace replaces the handle's entire attribute map.
	StateReplace StateMode = iota
	// StateMerge shallow-merges the given map into the existing one.
	StateMerge
)

// SetState updates Chat.ThreadState or Chat.ChannelState for a handle id,
// per spec.md §3's set_state(chat, handle, mode, value). isThread
// selects which state map is touched.
func (c *Chat) SetState(isThread bool, handleID string, mode StateMode, value map[string]any) *Chat {
	cp := c.clone()
	if isThread {
		cp.ThreadState = setKeyedState(c.ThreadState, handleID, mode, value)
	} else {
		cp.ChannelState = setKeyedState(c.ChannelState, handleID, mode, value)
	}
	return cp
}

// SetStateKey sets a single key within a handle's attribute map, the
// key-put mode named alongside :replace/:merge in spec.md §3.
func (c *Chat) SetStateKey(isThread bool, handleID, key string, value any) *Chat {
	cp := c.clone()
	existing := map[string]any{}
	if isThread {
		if m, ok := c.ThreadState[handleID]; ok {
			existing = cloneAnyMap(m)
		}
	} else if m, ok := c.ChannelState[handleID]; ok {
		existing = cloneAnyMap(m)
	}
	existing[key] = value
	if isThread {
		cp.ThreadState = setKeyedState(c.ThreadState, handleID, StateReplace, existing)
	} else {
		cp.ChannelState = setKeyedState(c.ChannelState, handleID, StateReplace, existing)
	}
	return cp
}

func setKeyedState(src map[string]map[string]any, handleID string, mode StateMode, value map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	switch mode {
	case StateMerge:
		merged := cloneAnyMap(src[handleID])
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range value {
			merged[k] = v
		}
		out[handleID] = merged
	default:
		out[handleID] = cloneAnyMap(value)
	}
	return out
}

// GetThreadState returns a thread handle's attribute map (possibly nil).
func (c *Chat) GetThreadState(handleID string) map[string]any {
	return c.ThreadState[handleID]
}

// GetChannelState returns a channel handle's attribute map (possibly
// nil).
func (c *Chat) GetChannelState(handleID string) map[string]any {
	return c.ChannelState[handleID]
}

// Shutdown marks Chat as no longer initialized. The field is advisory
// metadata only — this module enforces no gate on outbound calls based on
// it (spec.md §9, Open Questions #2).
func (c *Chat) Shutdown() *Chat {
	cp := c.clone()
	cp.Initialized = false
	return cp
}

// --- handler registration ---

// RegisterMention appends fn to the mention handler class.
func (c *Chat) RegisterMention(fn MentionHandlerFunc) *Chat {
	cp := c.clone()
	h := c.Handlers.clone()
	h.Mention = append(h.Mention, fn)
	cp.Handlers = h
	return cp
}

// RegisterSubscribed appends fn to the subscribed handler class.
func (c *Chat) RegisterSubscribed(fn SubscribedHandlerFunc) *Chat {
	cp := c.clone()
	h := c.Handlers.clone()
	h.Subscribed = append(h.Subscribed, fn)
	cp.Handlers = h
	return cp
}

// RegisterMessage compiles pattern once and appends fn to the message
// handler class.
func (c *Chat) RegisterMessage(pattern string, fn MessageHandlerFunc) (*Chat, error) {
	p, err := compilePattern(pattern)
	if err != nil {
		return c, err
	}
	cp := c.clone()
	h := c.Handlers.clone()
	h.Message = append(h.Message, messageHandlerEntry{pattern: p, fn: fn})
	cp.Handlers = h
	return cp, nil
}

// RegisterReaction appends fn to the reaction handler class.
func (c *Chat) RegisterReaction(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.Reaction })
}

// RegisterAction appends fn to the action handler class.
func (c *Chat) RegisterAction(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.Action })
}

// RegisterModalSubmit appends fn to the modal_submit handler class.
func (c *Chat) RegisterModalSubmit(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.ModalSubmit })
}

// RegisterModalClose appends fn to the modal_close handler class.
func (c *Chat) RegisterModalClose(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.ModalClose })
}

// RegisterSlashCommand appends fn to the slash_command handler class.
func (c *Chat) RegisterSlashCommand(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.SlashCommand })
}

// RegisterAssistantThreadStarted appends fn to the
// assistant_thread_started handler class.
func (c *Chat) RegisterAssistantThreadStarted(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.AssistantThreadStarted })
}

// RegisterAssistantContextChanged appends fn to the
// assistant_context_changed handler class.
func (c *Chat) RegisterAssistantContextChanged(fn EventHandlerFunc) *Chat {
	return c.registerEvent(fn, func(h *HandlerTable) *[]EventHandlerFunc { return &h.AssistantContextChanged })
}

func (c *Chat) registerEvent(fn EventHandlerFunc, slot func(*HandlerTable) *[]EventHandlerFunc) *Chat {
	cp := c.clone()
	h := c.Handlers.clone()
	list := slot(&h)
	*list = append(*list, fn)
	cp.Handlers = h
	return cp
}

// Mentioned reports whether an Incoming mentions the bot: either the
// adapter already flagged it, or the text matches the
// "(^|\s)@user_name\b" pattern case-insensitively (spec.md §4.4).
func (c *Chat) Mentioned(in Incoming) bool {
	if in.WasMentioned {
		return true
	}
	if strings.TrimSpace(c.UserName) == "" {
		return false
	}
	p := c.mentionRe
	if p == nil {
		var err error
		p, err = mentionPattern(c.UserName)
		if err != nil {
			return false
		}
	}
	return p.MatchString(in.Text)
}
