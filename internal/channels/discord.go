package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/coopco/helmsman/internal/bus"
)

func init() {
	Register("discord", newDiscordChannel)
}

type discordConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type DiscordChannel struct {
	session *discordgo.Session
	bus     *bus.MessageBus
	allowed allowList
}

func newDiscordChannel(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
	var dcfg discordConfig
	if err := json.Unmarshal(cfg, &dcfg); err != nil {
		return nil, fmt.Errorf("failed to parse discord config: %w", err)
	}
	session, err := discordgo.New("Bot " + dcfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordChannel{
		session: session,
		bus:     msgBus,
		allowed: newAllowList(dcfg.AllowedUsers),
	}, nil
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Start(ctx context.Context) error {
	c.session.AddHandler(c.onMessageCreate)
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord: failed to open websocket: %w", err)
	}
	return nil
}

func (c *DiscordChannel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !c.IsAllowed(m.Author.ID) {
		slog.Warn("discord: message from disallowed user", "userID", m.Author.ID)
		return
	}
	c.bus.OfferInbound(bus.InboundMessage{
		Channel:  "discord",
		SenderID: m.Author.ID,
		ChatID:   m.ChannelID,
		Content:  m.Content,
	}, offerWait)
}

func (c *DiscordChannel) Stop() error {
	return c.session.Close()
}

// Send attaches extracted files to the same message when present.
func (c *DiscordChannel) Send(msg bus.OutboundMessage) error {
	if len(msg.Attachments) == 0 {
		if _, err := c.session.ChannelMessageSend(msg.ChatID, msg.Content); err != nil {
			return fmt.Errorf("discord: failed to send message: %w", err)
		}
		return nil
	}

	files := make([]*discordgo.File, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		files = append(files, &discordgo.File{
			Name:   att.Name,
			Reader: bytes.NewReader(att.Data),
		})
	}
	_, err := c.session.ChannelMessageSendComplex(msg.ChatID, &discordgo.MessageSend{
		Content: msg.Content,
		Files:   files,
	})
	if err != nil {
		return fmt.Errorf("discord: failed to send message with attachments: %w", err)
	}
	return nil
}

func (c *DiscordChannel) IsAllowed(senderID string) bool {
	return c.allowed.allows(senderID)
}
