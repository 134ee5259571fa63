package ioc

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/KNICEX/volume-radar/internal/config"
	"github.com/KNICEX/volume-radar/internal/service/notification"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func InitNotifier(cfg config.Notify) notification.Notifier {
	var notifiers []notification.Notifier
	for _, driver := range cfg.Drivers {
		sender := initSender(driver, cfg)
		if sender == nil {
			continue
		}
		notifiers = append(notifiers, notification.New(sender, notification.WithRetry(cfg.Retries, time.Second)))
	}
	if len(notifiers) == 0 {
		slog.Warn("no notifier configured, fall back to console")
		notifiers = append(notifiers, notification.New(notification.NewConsoleSender(os.Stdout)))
	}
	return notification.Multi(notifiers...)
}

// initSender 缺少必要配置的渠道跳过
func initSender(driver string, cfg config.Notify) notification.Sender {
	switch driver {
	case config.NotifyConsole:
		return notification.NewConsoleSender(os.Stdout)
	case config.NotifyServerChan:
		if cfg.ServerChan.Key == "" {
			slog.Warn("serverchan key not set, skip", "driver", driver)
			return nil
		}
		return notification.NewServerChanSender(cfg.ServerChan.Key, cfg.ServerChan.BaseURL)
	case config.NotifyTelegram:
		if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
			slog.Warn("telegram token or chat id not set, skip", "driver", driver)
			return nil
		}
		return notification.NewLazyTelegramSender(func() (notification.BotAPI, error) {
			bot, err := InitTelegramBot(cfg.Telegram)
			if err != nil {
				return nil, err
			}
			return bot, nil
		}, cfg.Telegram.ChatID)
	case config.NotifyWebhook:
		if cfg.Webhook.URL == "" {
			slog.Warn("webhook url not set, skip", "driver", driver)
			return nil
		}
		return notification.NewWebhookSender(cfg.Webhook.URL)
	default:
		panic(fmt.Errorf("unknown notify driver %q", driver))
	}
}

// InitTelegramBot 会请求一次 getMe, 由 sender 在第一次发送时调用
func InitTelegramBot(cfg config.Telegram) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return bot, nil
}
