// Package intake holds the user-facing commands that feed the pipeline:
// registering, describing a vacancy and selecting the target vacancy.
// This is the only layer that mutates user records outside the
// pipeline tasks.
package intake

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"hirebot-engine/internal/chat"
	"hirebot-engine/internal/store"
)

type Handlers struct {
	db     *sql.DB
	sender chat.Sender
}

func New(db *store.DB, sender chat.Sender) *Handlers {
	return &Handlers{db: db.Pool, sender: sender}
}

func (h *Handlers) Register(r *chat.Router) {
	r.Handle("start", h.wrap("start", h.Start))
	r.Handle("vacancy", h.wrap("vacancy", h.Vacancy))
	r.Handle("select_vacancy", h.wrap("select_vacancy", h.SelectVacancy))
}

func (h *Handlers) wrap(name string, fn func(context.Context, chat.Message) error) chat.HandlerFunc {
	return func(ctx context.Context, msg chat.Message) {
		if err := fn(ctx, msg); err != nil {
			log.Printf("[intake] %s: %v", name, err)
		}
	}
}

func (h *Handlers) Start(ctx context.Context, msg chat.Message) error {
	if err := store.EnsureUser(ctx, h.db, msg.ChatID); err != nil {
		return err
	}
	return h.sender.SendMessage(ctx, msg.ChatID,
		"👋 Hi! Send /vacancy followed by your vacancy description to get started.")
}

func (h *Handlers) Vacancy(ctx context.Context, msg chat.Message) error {
	description := strings.TrimSpace(strings.Join(msg.Args, " "))
	if description == "" {
		return h.sender.SendMessage(ctx, msg.ChatID,
			"Please include the vacancy description after the command.")
	}
	if err := store.EnsureUser(ctx, h.db, msg.ChatID); err != nil {
		return err
	}
	if err := store.SetVacancyDescription(ctx, h.db, msg.ChatID, description); err != nil {
		return err
	}
	return h.sender.SendMessage(ctx, msg.ChatID,
		"✅ Vacancy description saved. We will derive sourcing criteria from it.")
}

func (h *Handlers) SelectVacancy(ctx context.Context, msg chat.Message) error {
	if len(msg.Args) != 1 || msg.Args[0] == "" {
		return h.sender.SendMessage(ctx, msg.ChatID,
			"Usage: /select_vacancy <vacancy_id>")
	}
	if err := store.SetSelectedVacancy(ctx, h.db, msg.ChatID, msg.Args[0]); err != nil {
		return h.sender.SendMessage(ctx, msg.ChatID,
			"Could not select that vacancy. Did you send /start first?")
	}
	return h.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("✅ Vacancy %s selected as the sourcing target.", msg.Args[0]))
}
