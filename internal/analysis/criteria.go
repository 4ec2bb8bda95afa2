// Package analysis derives sourcing criteria from a vacancy description
// and scores sourced resumes against them. Everything is rule-driven
// from config; no calls leave the process.
package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"

	"hirebot-engine/internal/config"
	"hirebot-engine/internal/domain"
)

// DeriveCriteria turns a free-form vacancy description into search
// parameters. The first non-empty line names the position; keywords
// come from the configured rule dictionaries, else from the most
// frequent non-stopword terms.
func DeriveCriteria(description string, cfg config.Config) domain.Criteria {
	c := domain.Criteria{}

	lines := strings.Split(description, "\n")
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			c.Position = truncate(l, 80)
			break
		}
	}

	text := strings.ToLower(description)

	matchRules := func(rules []config.Rule, dst *[]string) {
		for _, r := range rules {
			for _, needle := range r.Any {
				n := strings.ToLower(strings.TrimSpace(needle))
				if n == "" {
					continue
				}
				if strings.Contains(text, n) {
					*dst = append(*dst, r.Tag)
					break
				}
			}
		}
	}

	matchRules(cfg.Criteria.TitleRules, &c.MustHave)
	matchRules(cfg.Criteria.SkillRules, &c.Keywords)

	if len(c.Keywords) == 0 {
		c.Keywords = frequentTerms(text, cfg.Criteria.StopWords, maxKeywords(cfg))
	}
	c.Keywords = uniq(c.Keywords)
	if n := maxKeywords(cfg); len(c.Keywords) > n {
		c.Keywords = c.Keywords[:n]
	}
	c.MustHave = uniq(c.MustHave)

	return c
}

func maxKeywords(cfg config.Config) int {
	if cfg.Criteria.MaxKeywords > 0 {
		return cfg.Criteria.MaxKeywords
	}
	return 12
}

// frequentTerms is the fallback when no skill rule matched: count words
// of 3+ runes, drop stopwords, keep the most frequent ones.
func frequentTerms(text string, stopWords []string, limit int) []string {
	stop := map[string]bool{}
	for _, w := range stopWords {
		stop[strings.ToLower(strings.TrimSpace(w))] = true
	}

	counts := map[string]int{}
	var order []string
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '+' || r == '#')
	}) {
		if len(w) < 3 || stop[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// most frequent first; stable, so equally frequent terms keep
	// first-seen order
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
