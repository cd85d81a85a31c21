package chat

import (
	"context"
	"log/slog"
)

// ProcessMessage implements C4 for the EventMessage class: dedup,
// subscribed/mention/regex routing, and sequential handler execution
// (spec.md §4.4, §8 invariants 1–4).
//
// It returns the chat resulting from every handler invocation threaded in
// order, the (possibly unmodified) Incoming, and an error only when
// thread construction itself fails — individual handler errors are
// logged and do not abort dispatch or unwind chat state (spec.md §7).
func ProcessMessage(ctx context.Context, c *Chat, adapterName string, in Incoming) (*Chat, Incoming, error) {
	key, hasKey := dedupeKeyFor(adapterName, in)
	if hasKey {
		if _, seen := c.Dedupe[key]; seen {
			return c, in, nil
		}
	}

	chat := c
	if hasKey {
		chat = chat.withDedupeRecorded(key)
	}

	thread, err := BuildThread(chat, adapterName, in)
	if err != nil {
		return chat, in, err
	}

	switch {
	case chat.IsSubscribed(thread.ID):
		chat = runSubscribedHandlers(ctx, chat, thread, in)
	case chat.Mentioned(in):
		chat = runMentionHandlers(ctx, chat, thread, in)
	default:
		chat = runMessageHandlers(ctx, chat, thread, in)
	}

	return chat, in, nil
}

// dedupeKeyFor builds the (adapter, external_message_id) dedupe key.
// Dedup is skipped entirely (no key) when external_message_id is absent.
func dedupeKeyFor(adapterName string, in Incoming) (dedupeKey, bool) {
	if in.ExternalMessageID == "" {
		return dedupeKey{}, false
	}
	return dedupeKey{Adapter: adapterName, ExternalMessageID: in.ExternalMessageID}, true
}

// withDedupeRecorded returns a new Chat with key recorded in both Dedupe
// and DedupeOrder, evicting from the front of DedupeOrder (and Dedupe) when
// the bound is exceeded. The two stay in lockstep by construction — there
// is no path that updates one without the other (spec.md §9, Open
// Questions #1).
func (c *Chat) withDedupeRecorded(key dedupeKey) *Chat {
	cp := c.clone()

	dedupe := make(map[dedupeKey]struct{}, len(c.Dedupe)+1)
	for k := range c.Dedupe {
		dedupe[k] = struct{}{}
	}
	dedupe[key] = struct{}{}

	order := append(append([]dedupeKey(nil), c.DedupeOrder...), key)

	limit := c.DedupeLimit()
	for len(order) > limit {
		evicted := order[0]
		order = order[1:]
		delete(dedupe, evicted)
	}

	cp.Dedupe = dedupe
	cp.DedupeOrder = order
	return cp
}

func runSubscribedHandlers(ctx context.Context, c *Chat, t Thread, in Incoming) *Chat {
	for _, fn := range c.Handlers.Subscribed {
		c = invokeMessageHandler(ctx, c, t, in, func(ctx context.Context, c *Chat) (*Chat, error) {
			return fn(ctx, c, t, in)
		})
	}
	return c
}

func runMentionHandlers(ctx context.Context, c *Chat, t Thread, in Incoming) *Chat {
	for _, fn := range c.Handlers.Mention {
		c = invokeMessageHandler(ctx, c, t, in, func(ctx context.Context, c *Chat) (*Chat, error) {
			return fn(ctx, c, t, in)
		})
	}
	return c
}

// runMessageHandlers runs every registered regex handler whose pattern
// matches the incoming text (or the empty string if Text is empty) — all
// matching handlers run, not just the first (spec.md §4.4).
func runMessageHandlers(ctx context.Context, c *Chat, t Thread, in Incoming) *Chat {
	text := in.Text
	for _, entry := range c.Handlers.Message {
		if !entry.pattern.MatchString(text) {
			continue
		}
		fn := entry.fn
		c = invokeMessageHandler(ctx, c, t, in, func(ctx context.Context, c *Chat) (*Chat, error) {
			return fn(ctx, c, t, in)
		})
	}
	return c
}

func invokeMessageHandler(ctx context.Context, c *Chat, t Thread, in Incoming, call func(context.Context, *Chat) (*Chat, error)) *Chat {
	next, err := call(ctx, c)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Error("handler failed", slog.String("thread_id", t.ID), slog.Any("error", err))
		}
		return c
	}
	if next == nil {
		return c
	}
	return next
}

// DispatchEvent runs every registered handler of the class matching env's
// Type, threading Chat state through in registration order. Unlike
// ProcessMessage there is no routing-class choice to make — every
// registered handler of the event's class runs (spec.md §4.4 "for event
// streams other than message").
func DispatchEvent(ctx context.Context, c *Chat, env EventEnvelope) *Chat {
	var handlers []EventHandlerFunc
	switch env.Type {
	case EventReaction:
		handlers = c.Handlers.Reaction
	case EventAction:
		handlers = c.Handlers.Action
	case EventModalSubmit:
		handlers = c.Handlers.ModalSubmit
	case EventModalClose:
		handlers = c.Handlers.ModalClose
	case EventSlashCommand:
		handlers = c.Handlers.SlashCommand
	case EventAssistantThreadStarted:
		handlers = c.Handlers.AssistantThreadStarted
	case EventAssistantContextChanged:
		handlers = c.Handlers.AssistantContextChanged
	default:
		return c
	}
	for _, fn := range handlers {
		next, err := fn(ctx, c, env)
		if err != nil {
			if c.Logger != nil {
				c.Logger.Error("event handler failed", slog.String("event_type", string(env.Type)), slog.Any("error", err))
			}
			continue
		}
		if next != nil {
			c = next
		}
	}
	return c
}
