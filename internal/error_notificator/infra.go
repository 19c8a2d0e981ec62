package error_notificator

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Infra шлёт ошибки в админский чат Telegram. Без токена только пишет в лог.
type Infra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.ZapLogger
}

func NewInfra(token string, chatID int64, log *logger.ZapLogger) (*Infra, error) {
	i := &Infra{chatID: chatID, log: log}
	if token == "" || chatID == 0 {
		return i, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init error bot: %w", err)
	}
	i.bot = bot
	return i, nil
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	i.log.Log(logger.LogEntry{
		Level:   "error",
		Message: details,
		Service: "flipbook",
		Error:   err,
	})

	if i.bot == nil {
		return nil
	}

	text := fmt.Sprintf(
		"❗ Ошибка во flipbook\n\nОшибка: %v\n\nДетали: %s",
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text)); sendErr != nil {
		i.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[error_notificator] send fail",
			Service: "flipbook",
			Error:   sendErr,
		})
		return sendErr
	}

	return nil
}
