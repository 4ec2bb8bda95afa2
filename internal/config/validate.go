package config

import (
	"fmt"
	"strconv"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg plus everything
// wrong or suspicious about it. The admin chat id is checked here, once,
// so nothing downstream has to re-validate it per command.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Admin.ChatID = strings.TrimSpace(out.Admin.ChatID)
	out.Criteria.StopWords = trimList(out.Criteria.StopWords)
	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)

	// ---- Validation rules ----

	if out.Admin.ChatID == "" {
		res.addErr("admin.chat_id (or ADMIN_ID) is required; no admin command will be authorized without it")
	} else if _, err := strconv.ParseInt(out.Admin.ChatID, 10, 64); err != nil {
		res.addErr("admin.chat_id must be a numeric chat id, got %q", out.Admin.ChatID)
	}

	if out.Queue.Workers <= 0 {
		res.addErr("queue.workers must be > 0")
	}
	if out.Queue.Depth <= 0 {
		res.addErr("queue.depth must be > 0")
	}
	if out.Queue.TaskTimeoutSeconds <= 0 {
		res.addErr("queue.task_timeout_seconds must be > 0")
	}

	if out.Polling.NegotiationsSeconds <= 0 {
		res.addErr("polling.negotiations_seconds must be > 0")
	} else if out.Polling.NegotiationsSeconds < 30 {
		res.addWarn("polling.negotiations_seconds is very low (%d) and may cause rate limits.", out.Polling.NegotiationsSeconds)
	}
	if out.Polling.VideoStatusSeconds <= 0 {
		res.addErr("polling.video_status_seconds must be > 0")
	}

	if out.Board.ReqPerSec <= 0 {
		res.addErr("board.req_per_sec must be > 0")
	}
	if out.Board.Burst <= 0 {
		res.addErr("board.burst must be > 0")
	}
	if out.Board.MaxResumes <= 0 {
		res.addWarn("board.max_resumes is not set; sourcing will default to 50.")
	}

	checkRules := func(name string, rules []Rule) {
		for i, r := range rules {
			if r.Tag == "" {
				res.addErr("%s[%d].tag is required", name, i)
			}
			if len(r.Any) == 0 {
				res.addErr("%s[%d].any must have at least 1 term", name, i)
			}
		}
	}
	checkRules("criteria.title_rules", out.Criteria.TitleRules)
	checkRules("criteria.skill_rules", out.Criteria.SkillRules)

	for i, p := range out.Scoring.Penalties {
		if p.Reason == "" {
			res.addErr("scoring.penalties[%d].reason is required", i)
		}
		if len(p.Any) == 0 {
			res.addErr("scoring.penalties[%d].any must have at least 1 term", i)
		}
	}

	if out.Scoring.RecommendMax <= 0 {
		out.Scoring.RecommendMax = 5
	}

	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; video-intake polling may find nothing.")
		}
	}

	return out, res
}
