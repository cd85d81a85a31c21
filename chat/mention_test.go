package chat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

func TestMentionUserDiscordUsesAngleBracketForm(t *testing.T) {
	require.Equal(t, "<@123>", chat.MentionUser("discord", "123"))
	require.Equal(t, "<@123>", chat.MentionUser("Discord", "123"))
}

func TestMentionUserDefaultsToPlainAtForm(t *testing.T) {
	require.Equal(t, "@123", chat.MentionUser("telegram", "123"))
	require.Equal(t, "@123", chat.MentionUser("lark", "123"))
}

func TestMentionUserEmptyIDRendersUnknown(t *testing.T) {
	require.Equal(t, "@unknown", chat.MentionUser("telegram", ""))
	require.Equal(t, "@unknown", chat.MentionUser("telegram", "   "))
}

func TestMentionUserAcceptsAuthorValue(t *testing.T) {
	require.Equal(t, "@55", chat.MentionUser("telegram", chat.Author{UserID: "55"}))
	require.Equal(t, "<@55>", chat.MentionUser("discord", &chat.Author{UserID: "55"}))
}

func TestMentionUserAcceptsIntID(t *testing.T) {
	require.Equal(t, "@7", chat.MentionUser("telegram", 7))
	require.Equal(t, "@7", chat.MentionUser("telegram", int64(7)))
}

func TestMentionUserAcceptsUserIDMap(t *testing.T) {
	require.Equal(t, "@9", chat.MentionUser("telegram", map[string]any{"user_id": "9"}))
}

func TestMentionUserUnresolvableInputRendersUnknown(t *testing.T) {
	require.Equal(t, "@unknown", chat.MentionUser("telegram", nil))
	require.Equal(t, "@unknown", chat.MentionUser("telegram", map[string]any{"other": "9"}))
	require.Equal(t, "@unknown", chat.MentionUser("telegram", 3.14))
}

func TestChatMentionedMatchesPlainUserName(t *testing.T) {
	c := chat.New("astra")
	in := chat.Incoming{Text: "hey @astra can you help"}
	require.True(t, c.Mentioned(in))
}

func TestChatMentionedDoesNotMatchDottedMetacharacterAsWildcard(t *testing.T) {
	// user_name "a.stra" must match only a literal dot, not "any character"
	// — the regexp.QuoteMeta escaping fix for the latent mention-regex bug.
	c := chat.New("a.stra")
	literalMatch := chat.Incoming{Text: "hey @a.stra are you there"}
	require.True(t, c.Mentioned(literalMatch))

	wildcardAttempt := chat.Incoming{Text: "hey @aXstra are you there"}
	require.False(t, c.Mentioned(wildcardAttempt))
}

func TestChatMentionedHonorsAdapterFlagEvenWithoutTextMatch(t *testing.T) {
	c := chat.New("astra")
	in := chat.Incoming{Text: "no mention text here", WasMentioned: true}
	require.True(t, c.Mentioned(in))
}

func TestChatMentionedFalseWithEmptyUserName(t *testing.T) {
	c := chat.New("")
	in := chat.Incoming{Text: "hey @astra"}
	require.False(t, c.Mentioned(in))
}
