package playbook

import (
	"math"
	"sort"
	"strings"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
	"github.com/pratik-mahalle/soar/internal/pkg/errors"
)

// Scoring weights
const (
	KeywordWeight  = 0.3
	SeverityWeight = 0.4
	AssetWeight    = 0.3
	MaxScore       = 1.0
)

// Score is one playbook's relevance to an incident
type Score struct {
	Playbook        string   `json:"playbook"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	SeverityMatch   bool     `json:"severity_match"`
	AssetBonus      bool     `json:"asset_bonus"`
}

// Selection is the outcome of scoring a catalog
type Selection struct {
	Playbook *Playbook `json:"playbook"`
	Score    float64   `json:"score"`
	// Scores holds every playbook's score, highest first, ties by name
	Scores []Score `json:"scores"`
}

// ScorePlaybook computes a playbook's relevance: KeywordWeight per trigger
// keyword found in the rendered indicators, SeverityWeight on severity
// match, AssetWeight when any asset is affected, clamped to MaxScore.
func ScorePlaybook(p *Playbook, inc *incident.Incident) Score {
	return scoreAgainst(p, inc, inc.Indicators.String())
}

func scoreAgainst(p *Playbook, inc *incident.Incident, rendered string) Score {
	s := Score{Playbook: p.Name}
	for _, kw := range p.TriggerKeywords {
		if strings.Contains(rendered, kw) {
			s.MatchedKeywords = append(s.MatchedKeywords, kw)
			s.Score += KeywordWeight
		}
	}
	if p.Severity == inc.Severity {
		s.SeverityMatch = true
		s.Score += SeverityWeight
	}
	if len(inc.AffectedAssets) > 0 {
		s.AssetBonus = true
		s.Score += AssetWeight
	}
	s.Score = math.Min(roundScore(s.Score), MaxScore)
	return s
}

// roundScore strips float accumulation noise so 0.3+0.4 compares as 0.7
func roundScore(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ScoreAll scores every catalog playbook, highest first with ties broken
// by playbook name
func ScoreAll(c *Catalog, inc *incident.Incident) []Score {
	rendered := inc.Indicators.String()
	scores := make([]Score, 0, c.Len())
	for _, name := range c.names {
		scores = append(scores, scoreAgainst(c.playbooks[name], inc, rendered))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Playbook < scores[j].Playbook
	})
	return scores
}

// Select returns the highest scoring playbook. Equal scores resolve to the
// lexicographically smallest name. When no playbook scores above zero it
// returns a NoPlaybookMatched error alongside the scores.
func Select(c *Catalog, inc *incident.Incident) (*Selection, error) {
	scores := ScoreAll(c, inc)
	if len(scores) == 0 || scores[0].Score <= 0 {
		return &Selection{Scores: scores}, errors.NoPlaybookMatched(inc.ID)
	}

	best, _ := c.Get(scores[0].Playbook)
	return &Selection{
		Playbook: best,
		Score:    scores[0].Score,
		Scores:   scores,
	}, nil
}
