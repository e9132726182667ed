package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"library/internal/library"
	"library/internal/models"
)

// NewBot creates a new Telegram bot
func NewBot(token string, core library.Core, allowedUserIDs []int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	b := newBot(api, core, allowedUserIDs, logger)
	b.client = api
	return b, nil
}

func newBot(api sender, core library.Core, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		api:          api,
		core:         core,
		allowedUsers: allowedUsers,
		sessions:     make(map[int64]models.Role),
		states:       make(map[int64]*ConversationState),
		logger:       logger,
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || b.allowedUsers[userID]
}
