package bot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"library/internal/models"
)

const (
	callbackBorrow = "borrow:"
	callbackRemove = "remove:"
)

const (
	msgLoginFirst     = "Please log in first: /login <username> <password>"
	msgAdminRequired  = "Admin access required"
	msgMembersOnly    = "Only members can borrow books"
	msgBookNotFound   = "Book not found"
	msgBookAdded      = "Book added successfully!"
	msgAddFailed      = "Failed to add book"
	msgBookRemoved    = "Book removed successfully!"
	msgRemoveFailed   = "Failed to remove book"
	msgBadCredentials = "Invalid credentials"
)

// handleStart shows welcome message and the commands open to the caller
func (b *Bot) handleStart(message *tgbotapi.Message) {
	var text strings.Builder
	text.WriteString("Welcome to the Library! 📚\n\n")

	role, ok := b.session(message.From.ID)
	switch {
	case !ok:
		text.WriteString("/login <username> <password> - Log in")
	case models.IsAdmin(role):
		text.WriteString(`/search <title> - Find a book
/add title;isbn;author;year;category - Add a book
/remove <title> - Remove a book
/transactions - View all transactions
/logout - Log out`)
	default:
		text.WriteString(`/search <title> - Find a book
/borrow <title> - Borrow a book
/logout - Log out`)
	}

	b.reply(message.Chat.ID, text.String())
}

// handleLogin authenticates the Telegram user for this chat
func (b *Bot) handleLogin(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		b.reply(message.Chat.ID, "Usage: /login <username> <password>")
		return
	}

	// The command text carries the password; best effort to take it off the chat.
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
			b.logger.Debug("Failed to delete login message", zap.Error(err))
		}
	}

	role, ok := b.core.Authenticate(ctx, args[0], args[1])
	if !ok {
		b.logger.Info("Telegram login failed", zap.Int64("user_id", message.From.ID), zap.String("username", args[0]))
		b.reply(message.Chat.ID, msgBadCredentials)
		return
	}

	b.setSession(message.From.ID, role)
	b.logger.Info("Telegram login",
		zap.Int64("user_id", message.From.ID),
		zap.String("username", args[0]),
		zap.String("role", role.Name()),
	)
	b.reply(message.Chat.ID, fmt.Sprintf("Logged in as %s (%s). Use /start to see your commands.", args[0], role.Name()))
}

func (b *Bot) handleLogout(message *tgbotapi.Message) {
	b.setSession(message.From.ID, nil)
	b.reply(message.Chat.ID, "Logged out.")
}

// handleSearch looks a book up by title and offers the caller's next action
func (b *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message) {
	role, ok := b.requireLogin(message)
	if !ok {
		return
	}

	title := strings.TrimSpace(message.CommandArguments())
	if title == "" {
		b.reply(message.Chat.ID, "Usage: /search <title>")
		return
	}

	book, found := b.core.SearchBook(ctx, title)
	if !found {
		b.reply(message.Chat.ID, msgBookNotFound)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatBook(book))
	switch {
	case models.IsAdmin(role):
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Remove", callbackRemove+book.ID),
		))
	case book.IsAvailable:
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Borrow", callbackBorrow+book.ID),
		))
	}
	b.sendMessage(msg)
}

// handleBorrow lends the titled book to the logged-in member
func (b *Bot) handleBorrow(ctx context.Context, message *tgbotapi.Message) {
	member, ok := b.requireMember(message)
	if !ok {
		return
	}

	title := strings.TrimSpace(message.CommandArguments())
	if title == "" {
		b.reply(message.Chat.ID, "Usage: /borrow <title>")
		return
	}

	book, found := b.core.SearchBook(ctx, title)
	if !found {
		b.reply(message.Chat.ID, msgBookNotFound)
		return
	}

	_, text := b.core.BorrowBook(ctx, book.ID, member)
	b.reply(message.Chat.ID, text)
}

// handleAdd adds a book from one line, or starts a step-by-step conversation
func (b *Bot) handleAdd(ctx context.Context, message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		b.startAddConversation(message)
		return
	}

	parts := strings.Split(args, ";")
	if len(parts) < 4 || len(parts) > 5 {
		b.reply(message.Chat.ID, "Usage: /add title;isbn;author;year;category")
		return
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if slices.Contains(parts[:4], "") {
		b.reply(message.Chat.ID, "Title, ISBN, author and year are required.")
		return
	}
	category := ""
	if len(parts) == 5 {
		category = parts[4]
	}

	b.addBook(ctx, message.Chat.ID, parts[0], parts[1], parts[2], parts[3], category)
}

func (b *Bot) addBook(ctx context.Context, chatID int64, title, isbn, author, year, category string) {
	if b.core.AddBook(ctx, title, isbn, author, year, category) {
		b.reply(chatID, msgBookAdded)
		return
	}
	b.reply(chatID, msgAddFailed)
}

// handleRemove deletes the titled book
func (b *Bot) handleRemove(ctx context.Context, message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	title := strings.TrimSpace(message.CommandArguments())
	if title == "" {
		b.reply(message.Chat.ID, "Usage: /remove <title>")
		return
	}

	book, found := b.core.SearchBook(ctx, title)
	if !found {
		b.reply(message.Chat.ID, msgBookNotFound)
		return
	}
	b.removeBook(ctx, message.Chat.ID, book.ID)
}

func (b *Bot) removeBook(ctx context.Context, chatID int64, bookID string) {
	if b.core.RemoveBook(ctx, bookID) {
		b.reply(chatID, msgBookRemoved)
		return
	}
	b.reply(chatID, msgRemoveFailed)
}

// handleTransactions lists every borrow transaction
func (b *Bot) handleTransactions(ctx context.Context, message *tgbotapi.Message) {
	if !b.requireAdmin(message) {
		return
	}

	txs := b.core.ListAllTransactions(ctx)
	if len(txs) == 0 {
		b.reply(message.Chat.ID, "No transactions recorded yet.")
		return
	}

	views := make([]models.TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, tx)
	}
	slices.SortFunc(views, func(a, b models.TransactionView) int {
		if c := strings.Compare(a.BorrowDate, b.BorrowDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	var text strings.Builder
	text.WriteString("Transactions:\n")
	for i, tx := range views {
		fmt.Fprintf(&text, "\n%d. %s\n", i+1, formatTransaction(tx))
	}
	b.reply(message.Chat.ID, text.String())
}

func (b *Bot) requireLogin(message *tgbotapi.Message) (models.Role, bool) {
	role, ok := b.session(message.From.ID)
	if !ok {
		b.reply(message.Chat.ID, msgLoginFirst)
	}
	return role, ok
}

func (b *Bot) requireAdmin(message *tgbotapi.Message) bool {
	role, ok := b.requireLogin(message)
	if !ok {
		return false
	}
	if !models.IsAdmin(role) {
		b.reply(message.Chat.ID, msgAdminRequired)
		return false
	}
	return true
}

func (b *Bot) requireMember(message *tgbotapi.Message) (models.MemberIdentity, bool) {
	role, ok := b.requireLogin(message)
	if !ok {
		return models.MemberIdentity{}, false
	}
	member, ok := models.AsMember(role)
	if !ok {
		b.reply(message.Chat.ID, msgMembersOnly)
	}
	return member, ok
}

func formatBook(book *models.BookView) string {
	status := "Available"
	if !book.IsAvailable {
		status = "Borrowed"
	}
	text := fmt.Sprintf("%s\nAuthor: %s\nISBN: %s\nYear: %d\nStatus: %s",
		book.Title, book.Author, book.ISBN, book.Year, status)
	if book.Category != "" {
		text += "\nCategory: " + book.Category
	}
	return text
}

func formatTransaction(tx models.TransactionView) string {
	book, member := "Unknown book", "Unknown member"
	if tx.Book != nil {
		book = fmt.Sprintf("%s by %s (ISBN %s)", tx.Book.Title, tx.Book.Author, tx.Book.ISBN)
	}
	if tx.Member != nil {
		member = fmt.Sprintf("%s (%s)", tx.Member.Username, tx.Member.MemberID)
	}
	return fmt.Sprintf("%s\n   Member: %s\n   Borrowed: %s, due %s\n   Status: %s",
		book, member, tx.BorrowDate, tx.DueDate, tx.Status)
}
