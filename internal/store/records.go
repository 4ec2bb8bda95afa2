package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UserRecord is the per-user pipeline state: what the user has told us
// about their vacancy and how far the hiring workflow has advanced.
type UserRecord struct {
	ChatID             string `json:"chatId"`
	VacancyDescription string `json:"vacancyDescription"`
	SourcingCriteria   string `json:"sourcingCriteria"` // JSON, "" until derived
	VacancySelected    bool   `json:"vacancySelected"`
	TargetVacancyID    string `json:"targetVacancyId"`
	UpdatedAt          string `json:"updatedAt"`
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS users (
  chat_id TEXT PRIMARY KEY,
  vacancy_description TEXT NOT NULL DEFAULT '',
  sourcing_criteria TEXT NOT NULL DEFAULT '',
  vacancy_selected INTEGER NOT NULL DEFAULT 0,
  target_vacancy_id TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS resumes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  chat_id TEXT NOT NULL,
  vacancy_id TEXT NOT NULL,
  applicant_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  resume_text TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  score INTEGER,
  tags TEXT NOT NULL DEFAULT '[]',
  video_status TEXT NOT NULL DEFAULT 'none',
  recommended INTEGER NOT NULL DEFAULT 0,
  fetched_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS negotiations (
  chat_id TEXT NOT NULL,
  vacancy_id TEXT NOT NULL,
  applicant_id TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL,
  PRIMARY KEY (chat_id, vacancy_id, applicant_id)
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_resumes_applicant
ON resumes(chat_id, vacancy_id, applicant_id);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_resumes_score
ON resumes(chat_id, vacancy_id, score);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

func EnsureUser(ctx context.Context, db *sql.DB, chatID string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO users(chat_id, updated_at) VALUES(?, ?)
ON CONFLICT(chat_id) DO NOTHING;`,
		chatID, now())
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", chatID, err)
	}
	return nil
}

func GetUser(ctx context.Context, db *sql.DB, chatID string) (UserRecord, bool, error) {
	var u UserRecord
	var selected int
	err := db.QueryRowContext(ctx, `
SELECT chat_id, vacancy_description, sourcing_criteria, vacancy_selected, target_vacancy_id, updated_at
FROM users WHERE chat_id = ?;`, chatID).
		Scan(&u.ChatID, &u.VacancyDescription, &u.SourcingCriteria, &selected, &u.TargetVacancyID, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	u.VacancySelected = selected != 0
	return u, true, nil
}

func ListUserIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT chat_id FROM users ORDER BY chat_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func SetVacancyDescription(ctx context.Context, db *sql.DB, chatID, description string) error {
	return touchUser(ctx, db, chatID, `vacancy_description = ?`, description)
}

func SetSourcingCriteria(ctx context.Context, db *sql.DB, chatID, criteriaJSON string) error {
	return touchUser(ctx, db, chatID, `sourcing_criteria = ?`, criteriaJSON)
}

func SetSelectedVacancy(ctx context.Context, db *sql.DB, chatID, vacancyID string) error {
	res, err := db.ExecContext(ctx, `
UPDATE users SET vacancy_selected = 1, target_vacancy_id = ?, updated_at = ? WHERE chat_id = ?;`,
		vacancyID, now(), chatID)
	if err != nil {
		return fmt.Errorf("select vacancy for %s: %w", chatID, err)
	}
	return requireRow(res, chatID)
}

func touchUser(ctx context.Context, db *sql.DB, chatID, setClause string, val any) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET `+setClause+`, updated_at = ? WHERE chat_id = ?;`,
		val, now(), chatID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", chatID, err)
	}
	return requireRow(res, chatID)
}

func requireRow(res sql.Result, chatID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s not in records", chatID)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
