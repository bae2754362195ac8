// Package bot is the Telegram admin console: product and promo management
// wizards, order status updates and a stats dashboard, all gated to one
// admin chat.
package bot

import (
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron"

	"github.com/kustore/storefront/images"
	"github.com/kustore/storefront/logging"
	"github.com/kustore/storefront/store"
)

// Bot runs the admin console over Telegram long polling.
type Bot struct {
	api         *tgbotapi.BotAPI
	store       store.Store
	uploader    *images.Uploader
	sessions    *SessionStore
	logger      logging.Logger
	adminChatID int64
	cron        *cron.Cron
}

// New connects to the Telegram API and wires the bot. uploader may be nil;
// photo steps are then skipped.
func New(token string, adminChatID int64, s store.Store, uploader *images.Uploader, logger logging.Logger) (*Bot, error) {
	if logger == nil {
		logger = logging.Default()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	logger.Info("admin bot authorized", logging.String("username", api.Self.UserName))

	return &Bot{
		api:         api,
		store:       s,
		uploader:    uploader,
		sessions:    NewSessionStore(DefaultSessionTTL),
		logger:      logger,
		adminChatID: adminChatID,
		cron:        cron.New(),
	}, nil
}

// Run polls for updates until the update channel closes. Stale wizard
// sessions are evicted every five minutes.
func (b *Bot) Run() error {
	b.cron.AddFunc("@every 5m", func() {
		if n := b.sessions.Evict(time.Now()); n > 0 {
			b.logger.Debug("evicted stale sessions", logging.Int("count", n))
		}
	})
	b.cron.Start()
	defer b.cron.Stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	for update := range b.api.GetUpdatesChan(u) {
		b.handleUpdate(update)
	}
	return nil
}

// handleUpdate routes one update. Anything from outside the admin chat is
// dropped without a reply.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	var chatID int64
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
	default:
		return
	}

	if chatID != b.adminChatID {
		if update.Message != nil && update.Message.IsCommand() && update.Message.Command() == "start" {
			b.send(chatID, "You do not have access to this bot.")
		}
		b.logger.Warn("update from non-admin chat ignored", logging.Int64("chat_id", chatID))
		return
	}

	session := b.sessions.Get(chatID)

	if update.CallbackQuery != nil {
		b.handleCallback(session, update.CallbackQuery)
		return
	}
	b.handleMessage(session, update.Message)
}

// handleMessage routes text and photo messages by the session state.
func (b *Bot) handleMessage(session *Session, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(session, msg)
		return
	}

	switch session.State {
	case StateIdle:
		b.sendMainMenu(session.ChatID)
	case StateEditSearch, StateToggleSearch:
		b.handleProductSearch(session, msg.Text)
	case StateEditValue:
		b.handleEditValue(session, msg.Text)
	case StateProductPhoto:
		b.handleProductPhoto(session, msg)
	default:
		if isProductState(session.State) {
			b.handleProductStep(session, msg.Text)
			return
		}
		if isPromoState(session.State) {
			b.handlePromoStep(session, msg.Text)
			return
		}
		b.sendMainMenu(session.ChatID)
	}
}

func (b *Bot) handleCommand(session *Session, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "menu":
		b.sessions.Reset(session.ChatID)
		b.sendMainMenu(session.ChatID)
	case "cancel":
		b.sessions.Reset(session.ChatID)
		b.send(session.ChatID, "Cancelled.")
		b.sendMainMenu(session.ChatID)
	case "stats":
		b.sendStats(session.ChatID)
	default:
		b.send(session.ChatID, "Unknown command. Use /menu.")
	}
}

func isProductState(s State) bool {
	switch s {
	case StateProductName, StateProductPrice, StateProductFakePrice,
		StateProductCategory, StateProductBrand, StateProductColor,
		StateProductDescription, StateProductSizes, StateProductStock,
		StateProductMeasurements, StateProductPhoto, StateProductConfirm:
		return true
	}
	return false
}

func isPromoState(s State) bool {
	switch s {
	case StatePromoCode, StatePromoName, StatePromoType, StatePromoValue,
		StatePromoMinOrder, StatePromoMinItems, StatePromoCategories,
		StatePromoMaxUses, StatePromoValidUntil, StatePromoConfirm:
		return true
	}
	return false
}

// send delivers a plain text message, logging delivery failures.
func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", logging.Error(err))
	}
}

// sendWithKeyboard delivers a message with an inline keyboard.
func (b *Bot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send message", logging.Error(err))
	}
}

// downloadPhoto fetches the largest rendition of a photo message, bounded
// by the upload size cap.
func (b *Bot) downloadPhoto(msg *tgbotapi.Message) ([]byte, error) {
	if len(msg.Photo) == 0 {
		return nil, fmt.Errorf("message has no photo")
	}
	best := msg.Photo[len(msg.Photo)-1]

	url, err := b.api.GetFileDirectURL(best.FileID)
	if err != nil {
		return nil, err
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, images.MaxUploadSize+1))
}
