package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coopco/helmsman/internal/bus"
)

func init() {
	Register("telegram", newTelegramChannel)
}

// offerWait bounds how long a transport goroutine blocks handing a
// message to the engine before dropping it.
const offerWait = 2 * time.Second

// allowList is a sender whitelist. Empty means everyone is allowed.
type allowList map[string]bool

func newAllowList(ids []string) allowList {
	al := make(allowList, len(ids))
	for _, id := range ids {
		al[id] = true
	}
	return al
}

func (al allowList) allows(senderID string) bool {
	return len(al) == 0 || al[senderID]
}

type telegramConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type TelegramChannel struct {
	bot     *tgbotapi.BotAPI
	bus     *bus.MessageBus
	allowed allowList
	stopCh  chan struct{}
}

func newTelegramChannel(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
	var tcfg telegramConfig
	if err := json.Unmarshal(cfg, &tcfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}
	bot, err := tgbotapi.NewBotAPI(tcfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramChannel{
		bot:     bot,
		bus:     msgBus,
		allowed: newAllowList(tcfg.AllowedUsers),
		stopCh:  make(chan struct{}),
	}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	go c.readUpdates(ctx, c.bot.GetUpdatesChan(u))
	return nil
}

func (c *TelegramChannel) readUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			c.handleMessage(update.Message)
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return
		case <-c.stopCh:
			c.bot.StopReceivingUpdates()
			return
		}
	}
}

func (c *TelegramChannel) handleMessage(m *tgbotapi.Message) {
	senderID := strconv.FormatInt(m.From.ID, 10)
	if !c.IsAllowed(senderID) {
		slog.Warn("telegram: message from disallowed user", "senderID", senderID)
		return
	}
	c.bus.OfferInbound(bus.InboundMessage{
		Channel:  "telegram",
		SenderID: senderID,
		ChatID:   strconv.FormatInt(m.Chat.ID, 10),
		Content:  m.Text,
	}, offerWait)
}

func (c *TelegramChannel) Stop() error {
	close(c.stopCh)
	return nil
}

// Send delivers the text first, then each attachment as a document.
func (c *TelegramChannel) Send(msg bus.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chatID %q: %w", msg.ChatID, err)
	}
	if msg.Content != "" {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, msg.Content)); err != nil {
			return err
		}
	}
	for _, att := range msg.Attachments {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  att.Name,
			Bytes: att.Data,
		})
		if _, err := c.bot.Send(doc); err != nil {
			return fmt.Errorf("telegram: failed to send attachment %s: %w", att.Name, err)
		}
	}
	return nil
}

func (c *TelegramChannel) IsAllowed(senderID string) bool {
	return c.allowed.allows(senderID)
}
