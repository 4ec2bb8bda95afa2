// Package email polls the recruiting mailbox for applicant
// video-submission notifications and turns them into status updates.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"hirebot-engine/internal/config"
	"hirebot-engine/internal/domain"
)

// Subject convention of the board's notification emails:
//   "Video submitted [vacancy:12345] [applicant:a-678]"
var (
	vacancyRe   = regexp.MustCompile(`\[vacancy:([A-Za-z0-9_-]+)\]`)
	applicantRe = regexp.MustCompile(`\[applicant:([A-Za-z0-9_-]+)\]`)
)

// Submission ties a video status update to the vacancy it belongs to.
type Submission struct {
	VacancyID string
	Update    domain.VideoStatusUpdate
}

type Intake struct {
	cfg      config.Config
	password string
}

func NewIntake(cfg config.Config, password string) *Intake {
	return &Intake{cfg: cfg, password: password}
}

// Poll connects, reads unseen notification emails and marks the
// processed ones seen. One connection per poll; no state kept between
// runs.
func (in *Intake) Poll(ctx context.Context) ([]Submission, error) {
	if !in.cfg.Email.Enabled {
		return nil, nil
	}

	addr := fmt.Sprintf("%s:%d", in.cfg.Email.IMAPHost, in.cfg.Email.IMAPPort)
	c, err := dialAndLogin(ctx, addr, in.cfg.Email.Username, in.password, in.cfg.Email.IMAPHost)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Logout().Wait() }()

	mailbox := in.cfg.Email.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -1, 0),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	msgs, err := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{Envelope: true}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch envelopes: %w", err)
	}

	var subs []Submission
	var processed []imap.UID
	for _, m := range msgs {
		if m.Envelope == nil {
			continue
		}
		subject := m.Envelope.Subject
		if !in.subjectMatches(subject) {
			continue
		}
		sub, ok := parseSubject(subject)
		if !ok {
			log.Printf("[email] unparseable notification subject: %q", subject)
			continue
		}
		subs = append(subs, sub)
		processed = append(processed, m.UID)
	}

	if len(processed) > 0 {
		store := c.Store(imap.UIDSetNum(processed...), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Flags:  []imap.Flag{imap.FlagSeen},
			Silent: true,
		}, nil)
		if err := store.Close(); err != nil {
			log.Printf("[email] mark seen failed: %v", err)
		}
	}

	return subs, nil
}

func (in *Intake) subjectMatches(subject string) bool {
	if len(in.cfg.Email.SearchSubjectAny) == 0 {
		return strings.Contains(strings.ToLower(subject), "video submitted")
	}
	low := strings.ToLower(subject)
	for _, want := range in.cfg.Email.SearchSubjectAny {
		if strings.Contains(low, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

func parseSubject(subject string) (Submission, bool) {
	vm := vacancyRe.FindStringSubmatch(subject)
	am := applicantRe.FindStringSubmatch(subject)
	if vm == nil || am == nil {
		return Submission{}, false
	}
	return Submission{
		VacancyID: vm[1],
		Update: domain.VideoStatusUpdate{
			ApplicantID: am[1],
			Status:      "received",
		},
	}, true
}

func dialAndLogin(ctx context.Context, addr, username, password, serverName string) (*imapclient.Client, error) {
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: serverName},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// best-effort close on cancel
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}
