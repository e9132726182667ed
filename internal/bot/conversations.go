package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"library/internal/models"
)

// addBookPrompts are asked in order; the answer to each is stored under its key.
var addBookPrompts = []struct {
	key    string
	prompt string
}{
	{"title", "Please enter the book title:"},
	{"isbn", "ISBN:"},
	{"author", "Author:"},
	{"year", "Publication year:"},
	{"category", "Category (send - to skip):"},
}

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case "add":
		b.handleAddConversation(ctx, message, state)
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.setState(userID, nil)
		return
	}
	b.setState(userID, state)
}

func (b *Bot) startAddConversation(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: "add",
		Step:    1,
		Data:    make(map[string]string),
	})
	b.reply(message.Chat.ID, addBookPrompts[0].prompt)
}

// handleAddConversation collects one book field per message
func (b *Bot) handleAddConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	if state.Step < 1 || state.Step > len(addBookPrompts) {
		state.Step = -1
		return
	}

	// A session that ended mid-conversation cannot finish it
	if role, ok := b.session(message.From.ID); !ok || !models.IsAdmin(role) {
		b.reply(message.Chat.ID, msgAdminRequired)
		state.Step = -1
		return
	}

	current := addBookPrompts[state.Step-1]
	answer := strings.TrimSpace(message.Text)

	switch current.key {
	case "category":
		if answer == "-" {
			answer = ""
		}
	case "year":
		if _, err := strconv.ParseInt(answer, 10, 64); err != nil {
			b.reply(message.Chat.ID, "❌ The year must be a number. Publication year:")
			return
		}
	default:
		if answer == "" {
			b.reply(message.Chat.ID, current.prompt)
			return
		}
	}
	state.Data[current.key] = answer

	if state.Step < len(addBookPrompts) {
		state.Step++
		b.reply(message.Chat.ID, addBookPrompts[state.Step-1].prompt)
		return
	}

	b.addBook(ctx, message.Chat.ID,
		state.Data["title"], state.Data["isbn"], state.Data["author"], state.Data["year"], state.Data["category"])
	state.Step = -1 // Mark conversation as complete
}
