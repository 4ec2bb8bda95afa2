package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Video submission states for a sourced resume.
const (
	VideoNone      = "none"
	VideoRequested = "requested"
	VideoReceived  = "received"
)

type Resume struct {
	ID          int64    `json:"id"`
	ChatID      string   `json:"chatId"`
	VacancyID   string   `json:"vacancyId"`
	ApplicantID string   `json:"applicantId"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	ResumeText  string   `json:"resumeText"`
	URL         string   `json:"url"`
	Score       *int     `json:"score"` // nil until analyzed
	Tags        []string `json:"tags"`
	VideoStatus string   `json:"videoStatus"`
	Recommended bool     `json:"recommended"`
	FetchedAt   string   `json:"fetchedAt"`
}

type ResumeInsert struct {
	ChatID      string
	VacancyID   string
	ApplicantID string
	Name        string
	Title       string
	ResumeText  string
	URL         string
}

// InsertResumeIgnore inserts a sourced resume, skipping applicants we
// already hold for this user+vacancy. Reports whether a row was added.
func InsertResumeIgnore(ctx context.Context, db *sql.DB, r ResumeInsert) (added bool, err error) {
	_, err = db.ExecContext(ctx, `
INSERT OR IGNORE INTO resumes (chat_id, vacancy_id, applicant_id, name, title, resume_text, url, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ChatID, r.VacancyID, r.ApplicantID, r.Name, r.Title, r.ResumeText, r.URL, now(),
	)
	if err != nil {
		return false, fmt.Errorf("insert resume: %w", err)
	}

	// SELECT changes() tells us whether IGNORE swallowed the insert.
	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

func ListResumes(ctx context.Context, db *sql.DB, chatID, vacancyID string) ([]Resume, error) {
	return queryResumes(ctx, db, `
SELECT id, chat_id, vacancy_id, applicant_id, name, title, resume_text, url, score, tags, video_status, recommended, fetched_at
FROM resumes WHERE chat_id = ? AND vacancy_id = ?
ORDER BY score DESC;`, chatID, vacancyID)
}

func UnscoredResumes(ctx context.Context, db *sql.DB, chatID, vacancyID string) ([]Resume, error) {
	return queryResumes(ctx, db, `
SELECT id, chat_id, vacancy_id, applicant_id, name, title, resume_text, url, score, tags, video_status, recommended, fetched_at
FROM resumes WHERE chat_id = ? AND vacancy_id = ? AND score IS NULL
ORDER BY id;`, chatID, vacancyID)
}

// TopScored returns analyzed resumes at or above minScore, best first.
func TopScored(ctx context.Context, db *sql.DB, chatID, vacancyID string, minScore, limit int) ([]Resume, error) {
	if limit <= 0 {
		limit = 5
	}
	return queryResumes(ctx, db, `
SELECT id, chat_id, vacancy_id, applicant_id, name, title, resume_text, url, score, tags, video_status, recommended, fetched_at
FROM resumes WHERE chat_id = ? AND vacancy_id = ? AND score IS NOT NULL AND score >= ?
ORDER BY score DESC LIMIT ?;`, chatID, vacancyID, minScore, limit)
}

func SetResumeScore(ctx context.Context, db *sql.DB, id int64, score int, tags []string) error {
	tagsB, _ := json.Marshal(tags)
	if tags == nil {
		tagsB = []byte("[]")
	}
	_, err := db.ExecContext(ctx,
		`UPDATE resumes SET score = ?, tags = ? WHERE id = ?;`,
		score, string(tagsB), id)
	if err != nil {
		return fmt.Errorf("set resume score: %w", err)
	}
	return nil
}

func SetVideoStatus(ctx context.Context, db *sql.DB, chatID, vacancyID, applicantID, status string) error {
	_, err := db.ExecContext(ctx, `
UPDATE resumes SET video_status = ?
WHERE chat_id = ? AND vacancy_id = ? AND applicant_id = ?;`,
		status, chatID, vacancyID, applicantID)
	if err != nil {
		return fmt.Errorf("set video status: %w", err)
	}
	return nil
}

func MarkRecommended(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE resumes SET recommended = 1 WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("mark recommended: %w", err)
	}
	return nil
}

func queryResumes(ctx context.Context, db *sql.DB, q string, args ...any) ([]Resume, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		var r Resume
		var score sql.NullInt64
		var tagsJSON string
		var recommended int
		if err := rows.Scan(&r.ID, &r.ChatID, &r.VacancyID, &r.ApplicantID, &r.Name, &r.Title,
			&r.ResumeText, &r.URL, &score, &tagsJSON, &r.VideoStatus, &recommended, &r.FetchedAt); err != nil {
			return nil, err
		}
		if score.Valid {
			s := int(score.Int64)
			r.Score = &s
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		r.Recommended = recommended != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
