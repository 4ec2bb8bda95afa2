package analysis

import (
	"strings"

	"hirebot-engine/internal/config"
	"hirebot-engine/internal/domain"
)

type Scorer interface {
	Score(resumeText, resumeTitle string) (score int, tags []string)
}

// CriteriaScorer scores a resume against derived criteria: keyword hits
// add, missing must-haves subtract, configured penalties apply on top.
type CriteriaScorer struct {
	Criteria  domain.Criteria
	Penalties []config.Penalty
}

const (
	positionWeight = 15
	keywordWeight  = 10
	mustHaveMiss   = -20
)

func (s CriteriaScorer) Score(resumeText, resumeTitle string) (int, []string) {
	text := strings.ToLower(resumeTitle + " " + resumeText)

	score := 0
	var tags []string

	if s.Criteria.Position != "" && containsFold(text, s.Criteria.Position) {
		score += positionWeight
		tags = append(tags, "position_match")
	}

	for _, kw := range s.Criteria.Keywords {
		if containsFold(text, kw) {
			score += keywordWeight
			tags = append(tags, kw)
		}
	}

	for _, m := range s.Criteria.MustHave {
		if !containsFold(text, m) {
			score += mustHaveMiss
			tags = append(tags, "missing:"+m)
		}
	}

	for _, p := range s.Penalties {
		for _, needle := range p.Any {
			if containsFold(text, needle) {
				score += p.Weight
				tags = append(tags, p.Reason)
				break
			}
		}
	}

	return score, uniq(tags)
}

func containsFold(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	return needle != "" && strings.Contains(haystack, needle)
}
