// Package sourcing talks to the candidate board: resume search over the
// public HTML pages, negotiations and video status over the JSON API.
package sourcing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hirebot-engine/internal/domain"
)

type BoardConfig struct {
	SearchURL  string
	MaxResumes int
}

type Board struct {
	cfg BoardConfig
	hc  *http.Client
	lim *HostLimiter
}

func NewBoard(cfg BoardConfig, lim *HostLimiter) *Board {
	if cfg.MaxResumes <= 0 {
		cfg.MaxResumes = 50
	}
	return &Board{
		cfg: cfg,
		hc:  &http.Client{Timeout: 20 * time.Second},
		lim: lim,
	}
}

// SearchResumes runs one query per criteria keyword batch and parses
// the result cards. Partial results are returned on per-page errors;
// the caller decides whether an empty result is a problem.
func (b *Board) SearchResumes(ctx context.Context, c domain.Criteria) ([]domain.ResumeLead, error) {
	if b.cfg.SearchURL == "" {
		return nil, fmt.Errorf("board search_url is not configured")
	}

	q := buildQuery(c)
	searchURL := fmt.Sprintf("%s?%s", b.cfg.SearchURL, q.Encode())

	if b.lim != nil {
		if err := b.lim.WaitURL(ctx, searchURL); err != nil {
			return nil, err
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	req.Header.Set("User-Agent", "HireBot/1.0 (+local)")

	res, err := b.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("board search status: %s", res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("board parse: %w", err)
	}

	var out []domain.ResumeLead
	doc.Find("[data-qa=resume-card], .resume-search-item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		lead := parseCard(s)
		if lead.ApplicantID == "" {
			return true
		}
		if excluded(lead, c.Exclusions) {
			return true
		}
		out = append(out, lead)
		return len(out) < b.cfg.MaxResumes
	})

	return out, nil
}

func buildQuery(c domain.Criteria) url.Values {
	q := url.Values{}
	if c.Position != "" {
		q.Set("text", c.Position)
	}
	if len(c.Keywords) > 0 {
		q.Set("skills", strings.Join(c.Keywords, ","))
	}
	for _, m := range c.MustHave {
		q.Add("must", m)
	}
	return q
}

func parseCard(s *goquery.Selection) domain.ResumeLead {
	lead := domain.ResumeLead{Source: "board"}

	lead.ApplicantID, _ = s.Attr("data-applicant-id")
	if lead.ApplicantID == "" {
		// fall back to the id embedded in the profile link
		if href, ok := s.Find("a[data-qa=resume-title], a.resume-link").First().Attr("href"); ok {
			lead.ApplicantID = idFromHref(href)
			lead.URL = href
		}
	} else if href, ok := s.Find("a[data-qa=resume-title], a.resume-link").First().Attr("href"); ok {
		lead.URL = href
	}

	lead.Name = strings.TrimSpace(s.Find("[data-qa=resume-name], .resume-name").First().Text())
	lead.Title = strings.TrimSpace(s.Find("[data-qa=resume-title], .resume-title").First().Text())
	lead.ResumeText = strings.TrimSpace(s.Find("[data-qa=resume-snippet], .resume-snippet").First().Text())
	return lead
}

func idFromHref(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		id := href[i+1:]
		// strip query noise
		if j := strings.IndexByte(id, '?'); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return ""
}

func excluded(lead domain.ResumeLead, exclusions []string) bool {
	if len(exclusions) == 0 {
		return false
	}
	text := strings.ToLower(lead.Title + " " + lead.ResumeText)
	for _, x := range exclusions {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" && strings.Contains(text, x) {
			return true
		}
	}
	return false
}
