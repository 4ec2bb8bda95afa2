// Package chat wraps the Telegram transport behind small interfaces so
// handlers and the pipeline never touch the bot API directly.
package chat

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is one inbound chat command, already split into command and
// positional args. FromID is empty when the sender could not be
// resolved.
type Message struct {
	ChatID  string
	FromID  string
	Command string
	Args    []string
}

// Sender is the outbound side: plain text and file attachments.
type Sender interface {
	SendMessage(ctx context.Context, chatID string, text string) error
	SendDocument(ctx context.Context, chatID string, filename string, r io.Reader) error
}

// Notifier is the admin-notification primitive every handler reuses.
type Notifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

type Telegram struct {
	bot     *tgbotapi.BotAPI
	adminID int64
}

func NewTelegram(token string, adminChatID string) (*Telegram, error) {
	id, err := strconv.ParseInt(adminChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("admin chat id %q is not numeric: %w", adminChatID, err)
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	log.Printf("[chat] authorized as @%s", bot.Self.UserName)
	return &Telegram{bot: bot, adminID: id}, nil
}

func (t *Telegram) SendMessage(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("chat id %q is not numeric: %w", chatID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = t.bot.Send(tgbotapi.NewMessage(id, text))
	if err != nil {
		return fmt.Errorf("send message to %s: %w", chatID, err)
	}
	return nil
}

func (t *Telegram) SendDocument(ctx context.Context, chatID string, filename string, r io.Reader) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("chat id %q is not numeric: %w", chatID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(id, tgbotapi.FileReader{Name: filename, Reader: r})
	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("send document to %s: %w", chatID, err)
	}
	return nil
}

func (t *Telegram) NotifyAdmin(ctx context.Context, text string) error {
	return t.SendMessage(ctx, strconv.FormatInt(t.adminID, 10), text)
}

// Updates converts the long-polling stream into Messages. Non-command
// updates are skipped.
func (t *Telegram) Updates(ctx context.Context) <-chan Message {
	out := make(chan Message)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || !upd.Message.IsCommand() {
					continue
				}
				msg := Message{
					ChatID:  strconv.FormatInt(upd.Message.Chat.ID, 10),
					Command: upd.Message.Command(),
					Args:    splitArgs(upd.Message.CommandArguments()),
				}
				if upd.Message.From != nil {
					msg.FromID = strconv.FormatInt(upd.Message.From.ID, 10)
				}
				out <- msg
			}
		}
	}()
	return out
}
