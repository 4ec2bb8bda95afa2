package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Negotiation struct {
	ChatID      string `json:"chatId"`
	VacancyID   string `json:"vacancyId"`
	ApplicantID string `json:"applicantId"`
	State       string `json:"state"`
	UpdatedAt   string `json:"updatedAt"`
}

func UpsertNegotiation(ctx context.Context, db *sql.DB, n Negotiation) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO negotiations(chat_id, vacancy_id, applicant_id, state, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(chat_id, vacancy_id, applicant_id)
DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at;`,
		n.ChatID, n.VacancyID, n.ApplicantID, n.State, now())
	if err != nil {
		return fmt.Errorf("upsert negotiation: %w", err)
	}
	return nil
}

func CountNegotiations(ctx context.Context, db *sql.DB, chatID, vacancyID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM negotiations WHERE chat_id = ? AND vacancy_id = ?;`,
		chatID, vacancyID).Scan(&n)
	return n, err
}
