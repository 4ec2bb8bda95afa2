// Package admin is the operator command surface: a thin
// authorization-and-dispatch layer over the hiring pipeline. It checks
// the caller against the single configured admin chat id, validates
// arguments, checks pipeline readiness and forwards to exactly one
// pipeline operation. It mutates no state of its own.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"hirebot-engine/internal/chat"
)

const (
	UnauthorizedText     = "⛔ You are not authorized to use admin commands."
	TechnicalSupportText = "Something went wrong. Technical support has been notified."
)

// ValidationError marks bad arguments, unmet readiness preconditions,
// missing records and invalid file paths. It surfaces in the admin
// error report, never to the calling user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Records is the read-only view of the per-user pipeline records the
// dispatcher gates on.
type Records interface {
	ListUsers(ctx context.Context) ([]string, error)
	UserInRecords(ctx context.Context, chatID string) (bool, error)
	VacancyDescriptionReceived(ctx context.Context, chatID string) (bool, error)
	SourcingCriteriaReceived(ctx context.Context, chatID string) (bool, error)
	VacancySelected(ctx context.Context, chatID string) (bool, error)
	EnoughDataForAnalysis(ctx context.Context, chatID string) (bool, error)
	TargetVacancyID(ctx context.Context, chatID string) (string, error)
}

// Pipeline is the set of pipeline-triggering operations the dispatcher
// forwards to. Each call advances one user's workflow; the dispatcher
// never calls more than one per command.
type Pipeline interface {
	InformAdminAboutReadiness(ctx context.Context, chatID string) error
	DefineSourcingCriteria(ctx context.Context, chatID string) error
	SendSourcingCriteriaToUser(ctx context.Context, chatID string) error
	SourceNegotiations(ctx context.Context, chatID string) error
	SourceResumes(ctx context.Context, chatID string) error
	AnalyzeResumes(ctx context.Context, chatID string) error
	UpdateVideoStatus(ctx context.Context, chatID, vacancyID string) error
	RecommendResumes(ctx context.Context, chatID string) error
}

type Config struct {
	AdminID string // numeric chat id, validated once here
	DataDir string // root for pull-file, nothing outside it is readable
}

type Dispatcher struct {
	cfg      Config
	recs     Records
	pipe     Pipeline
	sender   chat.Sender
	notifier chat.Notifier
}

func New(cfg Config, recs Records, pipe Pipeline, sender chat.Sender, notifier chat.Notifier) (*Dispatcher, error) {
	cfg.AdminID = strings.TrimSpace(cfg.AdminID)
	if cfg.AdminID == "" {
		return nil, errors.New("admin id is required")
	}
	if _, err := strconv.ParseInt(cfg.AdminID, 10, 64); err != nil {
		return nil, fmt.Errorf("admin id %q is not numeric: %w", cfg.AdminID, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "/users_data"
	}
	return &Dispatcher{cfg: cfg, recs: recs, pipe: pipe, sender: sender, notifier: notifier}, nil
}

// Register wires every admin command into the router.
func (d *Dispatcher) Register(r *chat.Router) {
	cmds := map[string]func(ctx context.Context, msg chat.Message) error{
		"admin_get_users":                    d.GetUsers,
		"admin_get_user_status":              d.GetUserStatus,
		"admin_analyze_sourcing_criterias":   d.AnalyzeSourcingCriteria,
		"admin_send_sourcing_criterias_to_user": d.SendSourcingCriteriaToUser,
		"admin_update_neg_coll_for_all":      d.UpdateNegotiations,
		"admin_get_fresh_resumes":            d.GetFreshResumes,
		"admin_analyze_resumes":              d.AnalyzeResumes,
		"admin_update_resume_records_with_applicants_video_status": d.UpdateVideoStatus,
		"admin_recommend_resumes":            d.RecommendResumes,
		"admin_send_message":                 d.SendMessage,
		"admin_pull_file":                    d.PullFile,
	}
	for name, fn := range cmds {
		name, fn := name, fn
		r.Handle(name, func(ctx context.Context, msg chat.Message) {
			d.run(ctx, name, msg, fn)
		})
	}
}

// run is the shared command contract: resolve identity, fail closed on
// the admin check, execute, and report any failure once to the admin
// channel. The caller never sees an error beyond the unauthorized text.
func (d *Dispatcher) run(ctx context.Context, name string, msg chat.Message, fn func(context.Context, chat.Message) error) {
	callerID := msg.FromID
	log.Printf("[admin] %s: started. user_id=%s", name, orUnknown(callerID))

	if callerID == "" || callerID != d.cfg.AdminID {
		if err := d.sender.SendMessage(ctx, msg.ChatID, UnauthorizedText); err != nil {
			log.Printf("[admin] %s: unauthorized reply failed: %v", name, err)
		}
		log.Printf("[admin] unauthorized for %s", orUnknown(callerID))
		return
	}

	if err := fn(ctx, msg); err != nil {
		d.report(name, callerID, err)
	}
}

// report logs the failure and notifies the admin channel once,
// asynchronously so a broken transport cannot wedge the handler.
func (d *Dispatcher) report(name, callerID string, err error) {
	log.Printf("[admin] %s: failed to execute command: %v", name, err)
	text := fmt.Sprintf("⚠️ Error %s: %v\nAdmin ID: %s", name, err, orUnknown(callerID))
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if nerr := d.notifier.NotifyAdmin(nctx, text); nerr != nil {
			log.Printf("[admin] %s: admin notification failed: %v", name, nerr)
		}
	}()
}

func (d *Dispatcher) GetUsers(ctx context.Context, msg chat.Message) error {
	ids, err := d.recs.ListUsers(ctx)
	if err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID, fmt.Sprintf("📋 List of users: %v", ids))
}

func (d *Dispatcher) GetUserStatus(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	return d.pipe.InformAdminAboutReadiness(ctx, target)
}

func (d *Dispatcher) AnalyzeSourcingCriteria(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gate(ctx, target, d.recs.VacancyDescriptionReceived,
		"User %s does not have vacancy description received."); err != nil {
		return err
	}
	if err := d.pipe.DefineSourcingCriteria(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Task for analysing sourcing criteria is queued for user %s.", target))
}

func (d *Dispatcher) SendSourcingCriteriaToUser(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gate(ctx, target, d.recs.SourcingCriteriaReceived,
		"User %s does not have sourcing criteria received."); err != nil {
		return err
	}
	if err := d.pipe.SendSourcingCriteriaToUser(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Sourcing criteria sent to user %s.", target))
}

func (d *Dispatcher) UpdateNegotiations(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gate(ctx, target, d.recs.VacancySelected,
		"User %s does not have a vacancy selected."); err != nil {
		return err
	}
	if err := d.pipe.SourceNegotiations(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Negotiations collection updated for user %s.", target))
}

func (d *Dispatcher) GetFreshResumes(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gateEnoughData(ctx, target); err != nil {
		return err
	}
	if err := d.pipe.SourceResumes(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Fresh resumes collected for user %s.", target))
}

func (d *Dispatcher) AnalyzeResumes(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gateEnoughData(ctx, target); err != nil {
		return err
	}
	// two-phase: announce before the delegate call, confirm after
	if err := d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Start creating tasks for analysis of the fresh resumes for user %s.", target)); err != nil {
		return err
	}
	if err := d.pipe.AnalyzeResumes(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Analysis of fresh resumes is done for user %s.", target))
}

func (d *Dispatcher) UpdateVideoStatus(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gateEnoughData(ctx, target); err != nil {
		return err
	}
	vacancyID, err := d.recs.TargetVacancyID(ctx, target)
	if err != nil {
		return err
	}
	if err := d.pipe.UpdateVideoStatus(ctx, target, vacancyID); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Resume records updated with fresh videos from applicants for user %s.", target))
}

func (d *Dispatcher) RecommendResumes(ctx context.Context, msg chat.Message) error {
	target, err := d.targetUser(ctx, msg)
	if err != nil {
		return err
	}
	if err := d.gateEnoughData(ctx, target); err != nil {
		return err
	}
	if err := d.pipe.RecommendResumes(ctx, target); err != nil {
		return err
	}
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("Recommending resumes is triggered for user %s.", target))
}

// SendMessage relays arbitrary text to a target chat. Delivery failures
// are also echoed to the caller; this and PullFile are the only
// commands that show the caller anything beyond a confirmation.
func (d *Dispatcher) SendMessage(ctx context.Context, msg chat.Message) error {
	if len(msg.Args) < 2 {
		return validationf("Invalid number of arguments.")
	}
	target := msg.Args[0]
	if _, err := strconv.ParseInt(target, 10, 64); err != nil {
		return validationf("Invalid command arguments.")
	}
	text := strings.Join(msg.Args[1:], " ")

	if err := d.sender.SendMessage(ctx, target, text); err != nil {
		if serr := d.sender.SendMessage(ctx, msg.ChatID,
			fmt.Sprintf("❌ Failed to deliver message to user %s: %v", target, err)); serr != nil {
			log.Printf("[admin] admin_send_message: failure echo failed: %v", serr)
		}
		return fmt.Errorf("send message to user %s: %w", target, err)
	}

	log.Printf("[admin] message relayed to user %s", target)
	return d.sender.SendMessage(ctx, msg.ChatID,
		fmt.Sprintf("✅ Message sent to user %s:\n'%s'", target, text))
}

// targetUser parses the single positional user id argument and checks
// the record exists.
func (d *Dispatcher) targetUser(ctx context.Context, msg chat.Message) (string, error) {
	if len(msg.Args) != 1 {
		return "", validationf("Invalid number of arguments.")
	}
	target := msg.Args[0]
	if target == "" {
		return "", validationf("Invalid command arguments.")
	}
	if _, err := strconv.ParseInt(target, 10, 64); err != nil {
		return "", validationf("Invalid command arguments.")
	}
	ok, err := d.recs.UserInRecords(ctx, target)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", validationf("User %s not found in records.", target)
	}
	return target, nil
}

func (d *Dispatcher) gate(ctx context.Context, target string,
	pred func(context.Context, string) (bool, error), failFormat string) error {
	ok, err := pred(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return validationf(failFormat, target)
	}
	return nil
}

func (d *Dispatcher) gateEnoughData(ctx context.Context, target string) error {
	return d.gate(ctx, target, d.recs.EnoughDataForAnalysis,
		"User %s does not have enough vacancy data for resume analysis.")
}

func orUnknown(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}
