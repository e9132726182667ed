package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"library/internal/library"
	"library/internal/models"
)

// sender is the part of the Telegram API the handlers talk to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	client       *tgbotapi.BotAPI // nil in tests
	api          sender
	core         library.Core
	allowedUsers map[int64]bool // empty allows everyone
	sessions     map[int64]models.Role
	states       map[int64]*ConversationState
	statesMu     sync.RWMutex
	userLocks    sync.Map // user ID -> *sync.Mutex
	logger       *zap.Logger
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]string
}
