// Package pipeline owns the pipeline-triggering operations: every
// admin command and scheduled loop advances a user's hiring workflow
// through here. Long-running analysis goes through the task queue;
// everything else runs inline on the caller's goroutine.
package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"hirebot-engine/internal/analysis"
	"hirebot-engine/internal/chat"
	"hirebot-engine/internal/config"
	"hirebot-engine/internal/domain"
	"hirebot-engine/internal/events"
	"hirebot-engine/internal/queue"
	"hirebot-engine/internal/records"
	emailintake "hirebot-engine/internal/sourcing/email"
	"hirebot-engine/internal/store"
)

// BoardClient is the resume-search side of the candidate board.
type BoardClient interface {
	SearchResumes(ctx context.Context, c domain.Criteria) ([]domain.ResumeLead, error)
}

// APIClient is the authenticated JSON side of the board.
type APIClient interface {
	Negotiations(ctx context.Context, vacancyID string) ([]domain.NegotiationUpdate, error)
	VideoStatuses(ctx context.Context, vacancyID string) ([]domain.VideoStatusUpdate, error)
}

type Pipeline struct {
	cfg      config.Config
	db       *sql.DB
	recs     *records.Service
	tasks    *queue.Queue
	hub      *events.Hub
	sender   chat.Sender
	notifier chat.Notifier
	board    BoardClient
	api      APIClient
}

func New(cfg config.Config, db *store.DB, recs *records.Service, tasks *queue.Queue,
	hub *events.Hub, sender chat.Sender, notifier chat.Notifier,
	board BoardClient, api APIClient) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		db:       db.Pool,
		recs:     recs,
		tasks:    tasks,
		hub:      hub,
		sender:   sender,
		notifier: notifier,
		board:    board,
		api:      api,
	}
}

// InformAdminAboutReadiness sends the stage-by-stage digest for one
// user to the admin chat.
func (p *Pipeline) InformAdminAboutReadiness(ctx context.Context, chatID string) error {
	r, err := p.recs.Readiness(ctx, chatID)
	if err != nil {
		return err
	}
	return p.notifier.NotifyAdmin(ctx, formatReadiness(r))
}

// DefineSourcingCriteria enqueues the criteria-derivation task. The
// caller gets an immediate "queued" answer; the result lands in the
// record and on the event hub.
func (p *Pipeline) DefineSourcingCriteria(ctx context.Context, chatID string) error {
	return p.tasks.Enqueue(queue.Task{
		Name:   "define_sourcing_criteria",
		ChatID: chatID,
		Run: func(tctx context.Context) error {
			u, ok, err := store.GetUser(tctx, p.db, chatID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("user %s not in records", chatID)
			}

			crit := analysis.DeriveCriteria(u.VacancyDescription, p.cfg)
			b, err := json.Marshal(crit)
			if err != nil {
				return err
			}
			if err := store.SetSourcingCriteria(tctx, p.db, chatID, string(b)); err != nil {
				return err
			}
			p.hub.Publish(events.New("criteria_derived", chatID, crit.Position))
			return nil
		},
	})
}

// SendSourcingCriteriaToUser pushes the stored criteria to the user's
// own chat.
func (p *Pipeline) SendSourcingCriteriaToUser(ctx context.Context, chatID string) error {
	raw, err := p.recs.SourcingCriteria(ctx, chatID)
	if err != nil {
		return err
	}
	var crit domain.Criteria
	if err := json.Unmarshal([]byte(raw), &crit); err != nil {
		return fmt.Errorf("stored criteria for %s are unreadable: %w", chatID, err)
	}
	return p.sender.SendMessage(ctx, chatID, formatCriteria(crit))
}

// SourceNegotiations refreshes the negotiation collection for the
// user's selected vacancy.
func (p *Pipeline) SourceNegotiations(ctx context.Context, chatID string) error {
	vacancyID, err := p.recs.TargetVacancyID(ctx, chatID)
	if err != nil {
		return err
	}
	updates, err := p.api.Negotiations(ctx, vacancyID)
	if err != nil {
		return err
	}
	for _, n := range updates {
		err := store.UpsertNegotiation(ctx, p.db, store.Negotiation{
			ChatID:      chatID,
			VacancyID:   vacancyID,
			ApplicantID: n.ApplicantID,
			State:       n.State,
		})
		if err != nil {
			return err
		}
	}
	log.Printf("[pipeline] negotiations refreshed user=%s vacancy=%s n=%d", chatID, vacancyID, len(updates))
	p.hub.Publish(events.New("negotiations_refreshed", chatID, fmt.Sprintf("%d updates", len(updates))))
	return nil
}

// SourceResumes fetches fresh candidate resumes matching the stored
// criteria and persists the new ones.
func (p *Pipeline) SourceResumes(ctx context.Context, chatID string) error {
	vacancyID, err := p.recs.TargetVacancyID(ctx, chatID)
	if err != nil {
		return err
	}
	raw, err := p.recs.SourcingCriteria(ctx, chatID)
	if err != nil {
		return err
	}
	var crit domain.Criteria
	if err := json.Unmarshal([]byte(raw), &crit); err != nil {
		return fmt.Errorf("stored criteria for %s are unreadable: %w", chatID, err)
	}

	leads, err := p.board.SearchResumes(ctx, crit)
	if err != nil {
		return err
	}

	added := 0
	for _, lead := range leads {
		ok, err := store.InsertResumeIgnore(ctx, p.db, store.ResumeInsert{
			ChatID:      chatID,
			VacancyID:   vacancyID,
			ApplicantID: lead.ApplicantID,
			Name:        lead.Name,
			Title:       lead.Title,
			ResumeText:  lead.ResumeText,
			URL:         lead.URL,
		})
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}
	log.Printf("[pipeline] resumes sourced user=%s vacancy=%s fetched=%d added=%d", chatID, vacancyID, len(leads), added)
	p.hub.Publish(events.New("resumes_sourced", chatID, fmt.Sprintf("%d new", added)))
	return nil
}

// AnalyzeResumes enqueues one scoring task per unscored resume.
func (p *Pipeline) AnalyzeResumes(ctx context.Context, chatID string) error {
	vacancyID, err := p.recs.TargetVacancyID(ctx, chatID)
	if err != nil {
		return err
	}
	raw, err := p.recs.SourcingCriteria(ctx, chatID)
	if err != nil {
		return err
	}
	var crit domain.Criteria
	if err := json.Unmarshal([]byte(raw), &crit); err != nil {
		return fmt.Errorf("stored criteria for %s are unreadable: %w", chatID, err)
	}

	unscored, err := store.UnscoredResumes(ctx, p.db, chatID, vacancyID)
	if err != nil {
		return err
	}

	scorer := analysis.CriteriaScorer{Criteria: crit, Penalties: p.cfg.Scoring.Penalties}
	for _, r := range unscored {
		r := r
		err := p.tasks.Enqueue(queue.Task{
			Name:   "analyze_resume",
			ChatID: chatID,
			Run: func(tctx context.Context) error {
				score, tags := scorer.Score(r.ResumeText, r.Title)
				return store.SetResumeScore(tctx, p.db, r.ID, score, tags)
			},
		})
		if err != nil {
			return fmt.Errorf("enqueue analysis for resume %d: %w", r.ID, err)
		}
	}
	log.Printf("[pipeline] analysis queued user=%s vacancy=%s tasks=%d", chatID, vacancyID, len(unscored))
	return nil
}

// UpdateVideoStatus refreshes per-applicant video submission state from
// the board API for one vacancy.
func (p *Pipeline) UpdateVideoStatus(ctx context.Context, chatID, vacancyID string) error {
	updates, err := p.api.VideoStatuses(ctx, vacancyID)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := store.SetVideoStatus(ctx, p.db, chatID, vacancyID, u.ApplicantID, u.Status); err != nil {
			return err
		}
	}
	p.hub.Publish(events.New("video_status_refreshed", chatID, fmt.Sprintf("%d applicants", len(updates))))
	return nil
}

// RecommendResumes marks the best scored resumes with a received video
// and sends the digest to the user.
func (p *Pipeline) RecommendResumes(ctx context.Context, chatID string) error {
	vacancyID, err := p.recs.TargetVacancyID(ctx, chatID)
	if err != nil {
		return err
	}
	top, err := store.TopScored(ctx, p.db, chatID, vacancyID,
		p.cfg.Scoring.RecommendMinScore, p.cfg.Scoring.RecommendMax)
	if err != nil {
		return err
	}

	var picked []store.Resume
	for _, r := range top {
		if r.VideoStatus != store.VideoReceived {
			continue
		}
		if err := store.MarkRecommended(ctx, p.db, r.ID); err != nil {
			return err
		}
		picked = append(picked, r)
	}

	if len(picked) == 0 {
		return p.sender.SendMessage(ctx, chatID,
			"No candidates to recommend yet: nobody above the score threshold has submitted a video.")
	}

	p.hub.Publish(events.New("resumes_recommended", chatID, fmt.Sprintf("%d candidates", len(picked))))
	digest := formatRecommendations(picked)
	if err := p.sender.SendMessage(ctx, chatID, digest); err != nil {
		return err
	}
	return p.notifier.NotifyAdmin(ctx, fmt.Sprintf("User %s:\n%s", chatID, digest))
}

// ApplyVideoSubmissions records video submissions discovered by the
// email intake. Applicants are matched by vacancy, so the owning user
// is looked up per submission.
func (p *Pipeline) ApplyVideoSubmissions(ctx context.Context, subs []emailintake.Submission) error {
	users, err := p.recs.ListUsers(ctx)
	if err != nil {
		return err
	}
	byVacancy := map[string]string{}
	for _, id := range users {
		if v, err := p.recs.TargetVacancyID(ctx, id); err == nil {
			byVacancy[v] = id
		}
	}

	for _, s := range subs {
		chatID, ok := byVacancy[s.VacancyID]
		if !ok {
			log.Printf("[pipeline] video submission for unknown vacancy %s", s.VacancyID)
			continue
		}
		if err := store.SetVideoStatus(ctx, p.db, chatID, s.VacancyID, s.Update.ApplicantID, s.Update.Status); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAllNegotiations is the scheduled variant of SourceNegotiations
// over every user with a selected vacancy. Per-user failures are logged
// and do not stop the sweep.
func (p *Pipeline) RefreshAllNegotiations(ctx context.Context) error {
	return p.sweep(ctx, "negotiations", p.SourceNegotiations)
}

// RefreshAllVideoStatuses does the same for video submission state.
func (p *Pipeline) RefreshAllVideoStatuses(ctx context.Context) error {
	return p.sweep(ctx, "video", func(ctx context.Context, chatID string) error {
		vacancyID, err := p.recs.TargetVacancyID(ctx, chatID)
		if err != nil {
			return err
		}
		return p.UpdateVideoStatus(ctx, chatID, vacancyID)
	})
}

func (p *Pipeline) sweep(ctx context.Context, name string, fn func(context.Context, string) error) error {
	users, err := p.recs.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, id := range users {
		selected, err := p.recs.VacancySelected(ctx, id)
		if err != nil {
			return err
		}
		if !selected {
			continue
		}
		if err := fn(ctx, id); err != nil {
			log.Printf("[sweep:%s] user=%s error: %v", name, id, err)
		}
	}
	return nil
}

func formatReadiness(r records.Readiness) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "User %s readiness:\n", r.ChatID)
	fmt.Fprintf(&b, "%s vacancy description\n", mark(r.VacancyDescriptionReceived))
	fmt.Fprintf(&b, "%s sourcing criteria\n", mark(r.SourcingCriteriaReceived))
	fmt.Fprintf(&b, "%s vacancy selected", mark(r.VacancySelected))
	if r.TargetVacancyID != "" {
		fmt.Fprintf(&b, " (id %s)", r.TargetVacancyID)
	}
	fmt.Fprintf(&b, "\n%s enough data for resume analysis", mark(r.EnoughForAnalysis))
	return b.String()
}

func formatCriteria(c domain.Criteria) string {
	var b strings.Builder
	b.WriteString("🔍 Sourcing criteria for your vacancy:\n")
	if c.Position != "" {
		fmt.Fprintf(&b, "Position: %s\n", c.Position)
	}
	if len(c.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(c.Keywords, ", "))
	}
	if len(c.MustHave) > 0 {
		fmt.Fprintf(&b, "Must have: %s\n", strings.Join(c.MustHave, ", "))
	}
	if len(c.Exclusions) > 0 {
		fmt.Fprintf(&b, "Excluding: %s\n", strings.Join(c.Exclusions, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecommendations(rs []store.Resume) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⭐ Recommended candidates (%d):\n", len(rs))
	for i, r := range rs {
		score := 0
		if r.Score != nil {
			score = *r.Score
		}
		fmt.Fprintf(&b, "%d. %s — %s (score %d)\n", i+1, r.Name, r.Title, score)
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
