// Package telegram delivers matcher outcomes to users through the Telegram
// Bot API. It is the production implementation of the matchhub.Notifier
// boundary; link generation and chat relaying live in the bot layer, not
// here.
package telegram

import (
	"fmt"

	"linguamatch/backend/internal/localization"
	"linguamatch/backend/internal/models"
	"linguamatch/backend/internal/storage"
	"linguamatch/backend/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends localized match-found and search-expired messages.
type Notifier struct {
	BotAPI    *tgbotapi.BotAPI
	Storage   storage.Storage
	Localizer *localization.Localizer
}

func NewNotifier(token string, s storage.Storage, localizer *localization.Localizer) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect Telegram bot: %w", err)
	}
	bot.Debug = false
	logger.Info("Telegram notifier authorized", "account", bot.Self.UserName)

	return &Notifier{
		BotAPI:    bot,
		Storage:   s,
		Localizer: localizer,
	}, nil
}

// NotifyMatch messages both participants of a freshly created room in their
// own interface language. A failure for one participant does not stop the
// other's message.
func (n *Notifier) NotifyMatch(room *models.ChatRoom) error {
	var firstErr error
	for _, userID := range []string{room.User1ID, room.User2ID} {
		if err := n.send(userID, "match_found", room.RoomID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifyExpired tells a user their search ran out of time.
func (n *Notifier) NotifyExpired(userID string) error {
	return n.send(userID, "search_expired", "")
}

func (n *Notifier) send(userID, key, roomID string) error {
	user, err := n.Storage.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil || user.TelegramID == 0 {
		logger.Warn("No Telegram target for user", "user_id", userID)
		return nil
	}

	text := n.Localizer.GetString(user.LangCode, key)
	if roomID != "" {
		text = fmt.Sprintf("%s\n\n/room_%s", text, roomID)
	}

	msg := tgbotapi.NewMessage(user.TelegramID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.BotAPI.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s to %d: %w", key, user.TelegramID, err)
	}
	return nil
}
