package notification

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMaxLength = 4096

// BotAPI tgbotapi.BotAPI 中用到的部分
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramSender struct {
	newBot func() (BotAPI, error)
	chatID int64

	mu  sync.Mutex
	bot BotAPI
}

func NewTelegramSender(bot BotAPI, chatID int64) Sender {
	return &telegramSender{bot: bot, chatID: chatID}
}

// NewLazyTelegramSender 第一次发送时才创建 bot (NewBotAPI 会请求 getMe),
// 创建失败当作这次发送失败, 下次发送再试
func NewLazyTelegramSender(newBot func() (BotAPI, error), chatID int64) Sender {
	return &telegramSender{newBot: newBot, chatID: chatID}
}

func (t *telegramSender) getBot() (BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := t.newBot()
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *telegramSender) Name() string {
	return "telegram"
}

func (t *telegramSender) Send(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.getBot()
	if err != nil {
		return err
	}
	text := Truncate(title+"\n\n"+body, telegramMaxLength)
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
