package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"library/internal/models"
)

// handleBorrowCallback handles the Borrow button under a search result
func (b *Bot) handleBorrowCallback(ctx context.Context, query *tgbotapi.CallbackQuery, bookID string) {
	chatID := query.Message.Chat.ID

	role, ok := b.session(query.From.ID)
	if !ok {
		b.reply(chatID, msgLoginFirst)
		return
	}
	member, ok := models.AsMember(role)
	if !ok {
		b.reply(chatID, msgMembersOnly)
		return
	}

	_, text := b.core.BorrowBook(ctx, bookID, member)
	b.logger.Debug("Borrow via button", zap.String("book_id", bookID), zap.String("result", text))
	b.clearKeyboard(query)
	b.reply(chatID, text)
}

// handleRemoveCallback handles the Remove button under a search result
func (b *Bot) handleRemoveCallback(ctx context.Context, query *tgbotapi.CallbackQuery, bookID string) {
	chatID := query.Message.Chat.ID

	role, ok := b.session(query.From.ID)
	if !ok {
		b.reply(chatID, msgLoginFirst)
		return
	}
	if !models.IsAdmin(role) {
		b.reply(chatID, msgAdminRequired)
		return
	}

	b.clearKeyboard(query)
	b.removeBook(ctx, chatID, bookID)
}

// clearKeyboard removes the buttons so the same action is not sent twice
func (b *Bot) clearKeyboard(query *tgbotapi.CallbackQuery) {
	edit := tgbotapi.NewEditMessageReplyMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("Failed to clear keyboard", zap.Error(err))
	}
}
