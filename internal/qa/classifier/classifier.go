// Package classifier maps free-text questions onto a fixed set of report intents.
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/smallbiznis/courtside/internal/qa/domain"
)

const (
	defaultLastN = 10
	minLastN     = 3
	maxLastN     = 30

	defaultTopScorersLimit = 10
	defaultNetRatingLimit  = 20
)

var (
	seasonRe = regexp.MustCompile(`\b(20\d{2}-\d{2})\b`)
	lastNRe  = regexp.MustCompile(`(?i)last\s+(\d{1,2})\s+games?`)

	playerExplicitRe  = regexp.MustCompile(`(?i)(?:for|of)\s+([A-Za-z .'-]+?)(?:\s+last\s+\d+|\?|$)`)
	playerHeuristicRe = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})`)

	teamExplicitRe = regexp.MustCompile(`(?i)(?:for|of)\s+([A-Za-z .'-]+?)(?:\s+(?:in|during|this|last)|\?|$)`)
	teamKeywordRe  = regexp.MustCompile(`(?i)team\s+([A-Za-z .'-]+?)(?:\?|$)`)

	lastNPhraseRe = regexp.MustCompile(`last\s+\d+\s+games?`)
)

// Classify is deterministic. Rules are tried in order and the first match wins.
func Classify(question string) domain.Intent {
	normalized := strings.ToLower(question)
	season := extractSeason(question)

	if isTopScorers(normalized) {
		return domain.Intent{
			Type:       domain.IntentTopScorersSeason,
			Confidence: 0.93,
			Params:     domain.TopScorersParams{Season: season, Limit: defaultTopScorersLimit},
		}
	}

	if isAveragePoints(normalized) {
		if name := extractPlayerName(question); name != "" {
			return domain.Intent{
				Type:       domain.IntentPlayerAvgPointsLastN,
				Confidence: 0.87,
				Params: domain.PlayerAvgPointsParams{
					PlayerName: name,
					LastNGames: extractLastN(question),
					Season:     season,
				},
			}
		}
	}

	if isNetRating(normalized) {
		if name := extractTeamName(question); name != "" {
			return domain.Intent{
				Type:       domain.IntentTeamNetRatingTrend,
				Confidence: 0.84,
				Params:     domain.TeamNetRatingParams{TeamName: name, Season: season, Limit: defaultNetRatingLimit},
			}
		}
	}

	return domain.Intent{Type: domain.IntentUnknown, Confidence: 0.2, Params: domain.NoParams{}}
}

func isTopScorers(q string) bool {
	if strings.Contains(q, "top scorers") {
		return true
	}
	return containsAny(q, "top", "leading") && containsAny(q, "scorer", "points", "ppg")
}

func isAveragePoints(q string) bool {
	if lastNPhraseRe.MatchString(q) {
		return true
	}
	return containsAny(q, "average", "avg") && containsAny(q, "points", "ppg")
}

func isNetRating(q string) bool {
	return strings.Contains(q, "net rating") && containsAny(q, "trend", "team")
}

func extractSeason(q string) string {
	if m := seasonRe.FindStringSubmatch(q); m != nil {
		return m[1]
	}
	return ""
}

func extractLastN(q string) int {
	m := lastNRe.FindStringSubmatch(q)
	if m == nil {
		return defaultLastN
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultLastN
	}
	return clamp(n, minLastN, maxLastN)
}

func extractPlayerName(q string) string {
	if m := playerExplicitRe.FindStringSubmatch(q); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	if m := playerHeuristicRe.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractTeamName(q string) string {
	if m := teamExplicitRe.FindStringSubmatch(q); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	if m := teamKeywordRe.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
