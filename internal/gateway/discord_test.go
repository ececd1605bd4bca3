package gateway

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func newTestGateway(channelID string) *Discord {
	return &Discord{
		channelID:     channelID,
		botID:         "bot-1",
		conversations: make(map[string]string),
	}
}

func msg(authorID, channelID, content string, isBot bool) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ChannelID: channelID,
			Content:   content,
			Author:    &discordgo.User{ID: authorID, Bot: isBot},
		},
	}
}

func TestShouldHandle(t *testing.T) {
	g := newTestGateway("chan-1")

	cases := []struct {
		name string
		m    *discordgo.MessageCreate
		want bool
	}{
		{"normal message", msg("u1", "chan-1", "hello", false), true},
		{"own message", msg("bot-1", "chan-1", "hello", false), false},
		{"other bot", msg("u2", "chan-1", "hello", true), false},
		{"wrong channel", msg("u1", "chan-2", "hello", false), false},
		{"empty content", msg("u1", "chan-1", "", false), false},
	}
	for _, tc := range cases {
		if got := g.shouldHandle(tc.m); got != tc.want {
			t.Errorf("%s: shouldHandle = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestShouldHandleAnyChannel(t *testing.T) {
	g := newTestGateway("")
	if !g.shouldHandle(msg("u1", "whatever", "hi", false)) {
		t.Error("unrestricted gateway rejected a message")
	}
}

func TestConversationContinuity(t *testing.T) {
	g := newTestGateway("")

	if got := g.conversationFor("u1"); got != "" {
		t.Errorf("fresh user has conversation %q", got)
	}
	g.rememberConversation("u1", "conv-1")
	if got := g.conversationFor("u1"); got != "conv-1" {
		t.Errorf("conversationFor = %q", got)
	}
	if got := g.conversationFor("u2"); got != "" {
		t.Errorf("other user inherited conversation %q", got)
	}
}
