// Package gateway connects the scheduling agent to Discord. Each Discord user
// gets a rolling conversation so follow-up messages keep their context.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/weihung/schedagent/internal/agent"
	"github.com/weihung/schedagent/internal/logging"
)

// Chatter is the slice of the agent the gateway needs.
type Chatter interface {
	Chat(ctx context.Context, userID, username, message, conversationID string) (*agent.Result, error)
}

// Discord bridges Discord messages to agent turns.
type Discord struct {
	session   *discordgo.Session
	channelID string
	botID     string
	agent     Chatter

	mu            sync.Mutex
	conversations map[string]string // discord user id -> conversation id
}

// Config holds Discord connection settings.
type Config struct {
	Token string
	// ChannelID limits the gateway to one channel; empty listens everywhere
	// the bot can read.
	ChannelID string
}

// New creates a Discord gateway. Call Start to connect.
func New(cfg Config, chatter Chatter) (*Discord, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}

	g := &Discord{
		session:       session,
		channelID:     cfg.ChannelID,
		agent:         chatter,
		conversations: make(map[string]string),
	}

	session.AddHandler(g.handleMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return g, nil
}

// Start connects to Discord and begins listening.
func (g *Discord) Start() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}
	g.botID = g.session.State.User.ID
	logging.Info("discord", "connected as %s", g.session.State.User.Username)
	return nil
}

// Stop disconnects from Discord.
func (g *Discord) Stop() error {
	return g.session.Close()
}

// shouldHandle filters out our own messages, other bots, empty payloads, and
// traffic outside the configured channel.
func (g *Discord) shouldHandle(m *discordgo.MessageCreate) bool {
	if m.Author == nil || m.Author.ID == g.botID || m.Author.Bot {
		return false
	}
	if g.channelID != "" && m.ChannelID != g.channelID {
		return false
	}
	return m.Content != ""
}

func (g *Discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !g.shouldHandle(m) {
		return
	}

	logging.Debug("discord", "message from %s: %s", m.Author.Username, logging.Truncate(m.Content, 80))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	userID := "discord:" + m.Author.ID
	res, err := g.agent.Chat(ctx, userID, m.Author.Username, m.Content, g.conversationFor(m.Author.ID))
	if err != nil {
		logging.Warn("discord", "agent turn failed for %s: %v", m.Author.Username, err)
		g.reply(s, m.ChannelID, "Sorry, something went wrong handling that. Please try again.")
		return
	}

	g.rememberConversation(m.Author.ID, res.ConversationID)

	if res.Reply != "" {
		g.reply(s, m.ChannelID, res.Reply)
	}
}

func (g *Discord) reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		logging.Warn("discord", "send message: %v", err)
	}
}

func (g *Discord) conversationFor(discordUserID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conversations[discordUserID]
}

func (g *Discord) rememberConversation(discordUserID, conversationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conversations[discordUserID] = conversationID
}
