package bot

import (
	"maps"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"library/internal/models"
)

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) session(userID int64) (models.Role, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	role, ok := b.sessions[userID]
	return role, ok
}

func (b *Bot) setSession(userID int64, role models.Role) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	if role == nil {
		delete(b.sessions, userID)
		delete(b.states, userID)
		return
	}
	b.sessions[userID] = role
}

// lockUser serialises handling of updates from one user and returns the unlock.
func (b *Bot) lockUser(userID int64) func() {
	v, _ := b.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// state returns a copy of the user's conversation; changes are kept with setState.
func (b *Bot) state(userID int64) (*ConversationState, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	s, ok := b.states[userID]
	if !ok {
		return nil, false
	}
	c := *s
	c.Data = maps.Clone(s.Data)
	return &c, true
}

func (b *Bot) setState(userID int64, s *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	if s == nil {
		delete(b.states, userID)
		return
	}
	b.states[userID] = s
}
