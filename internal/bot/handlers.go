package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx := context.Background()
	defer b.lockUser(userID)()

	// Check if user is in a conversation
	if state, ok := b.state(userID); ok {
		if state.Step == -1 || message.IsCommand() {
			// Any command cancels an ongoing conversation
			b.setState(userID, nil)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		b.reply(message.Chat.ID, "Use /start to see available commands.")
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "login":
		b.handleLogin(ctx, message)
	case "logout":
		b.handleLogout(message)
	case "search":
		b.handleSearch(ctx, message)
	case "borrow":
		b.handleBorrow(ctx, message)
	case "add":
		b.handleAdd(ctx, message)
	case "remove":
		b.handleRemove(ctx, message)
	case "transactions":
		b.handleTransactions(ctx, message)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	defer b.lockUser(query.From.ID)()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback", zap.Error(err))
		}
	}
	if query.Message == nil {
		return
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, callbackBorrow):
		b.handleBorrowCallback(ctx, query, strings.TrimPrefix(data, callbackBorrow))
	case strings.HasPrefix(data, callbackRemove):
		b.handleRemoveCallback(ctx, query, strings.TrimPrefix(data, callbackRemove))
	}
}
