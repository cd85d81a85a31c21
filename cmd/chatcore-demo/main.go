// Command chatcore-demo boots a chat.Chat with the telegramlike and
// larklike fixture adapters, registers a "ping" message handler and a
// mention handler, feeds it two synthetic webhook deliveries, and prints the resulting
// WebhookResponses — then serializes and revives the Chat once to
// demonstrate the to-plain/revive round trip. It is a demonstration
// harness, not part of the library's public contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/chatcore/sdk/chat"
	"github.com/chatcore/sdk/examples/larklike"
	"github.com/chatcore/sdk/examples/telegramlike"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tg := telegramlike.New()
	lark := larklike.New()

	c := chat.New("astra",
		chat.WithLogger(logger),
		chat.WithAdapter(tg),
		chat.WithAdapter(lark),
	)

	if offenders := chat.ValidateCapabilities(lark); len(offenders) > 0 {
		for _, o := range offenders {
			logger.Warn("adapter declares unimplemented native capability",
				slog.String("adapter", lark.ChannelType()),
				slog.String("operation", string(o.Operation)))
		}
	}

	c, err := c.RegisterMessage(`(?i)^ping$`, chat.StatelessMessage(func(ctx context.Context, t chat.Thread, in chat.Incoming) error {
		_, err := t.Post(ctx, chat.Postable{Text: "pong"}, nil)
		return err
	}))
	if err != nil {
		logger.Error("register message handler", slog.Any("error", err))
		os.Exit(1)
	}

	c = c.RegisterMention(chat.StatelessMention(func(ctx context.Context, t chat.Thread, in chat.Incoming) error {
		_, err := t.Post(ctx, chat.Postable{Text: "you called, " + t.MentionUser(in.Author.UserID)}, nil)
		return err
	}))

	ctx := context.Background()

	body, _ := json.Marshal(map[string]any{
		"update_id": 1,
		"message": map[string]any{
			"message_id": 1,
			"date":       1700000000,
			"chat":       map[string]any{"id": 123, "type": "group", "title": "Room One"},
			"from":       map[string]any{"id": 7, "username": "user7", "first_name": "User"},
			"text":       "ping",
		},
	})
	c, resp := chat.HandleWebhookRequest(ctx, c, "telegram", chat.WebhookRequest{Body: body})
	fmt.Printf("telegram ping -> status=%d body=%s\n", resp.Status, resp.Body)

	larkBody, _ := json.Marshal(map[string]any{
		"chat_id":    "room-2",
		"open_id":    "ou-99",
		"message_id": "m-2",
		"text":       "@astra hello",
	})
	c, resp = chat.HandleWebhookRequest(ctx, c, "lark", chat.WebhookRequest{Body: larkBody})
	fmt.Printf("lark mention -> status=%d body=%s\n", resp.Status, resp.Body)

	plain := chat.ToPlain(c)
	encoded, err := json.MarshalIndent(plain, "", "  ")
	if err != nil {
		logger.Error("marshal chat snapshot", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	revived, err := chat.ReviveChat(plain, map[string]chat.Adapter{
		"telegram": tg,
		"lark":     lark,
	})
	if err != nil {
		logger.Error("revive chat", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Printf("revived chat %s has %d adapters\n", revived.ID, len(revived.Adapters))
}
