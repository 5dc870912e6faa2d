// Package domain defines questions, intents and answers for the bounded Q&A engine.
package domain

type IntentType string

const (
	IntentTopScorersSeason     IntentType = "TOP_SCORERS_SEASON"
	IntentPlayerAvgPointsLastN IntentType = "PLAYER_AVG_POINTS_LAST_N_GAMES"
	IntentTeamNetRatingTrend   IntentType = "TEAM_NET_RATING_TREND"
	IntentUnknown              IntentType = "UNKNOWN"
	// IntentLimitReached is reported when the quota check declines a question
	// before classification.
	IntentLimitReached IntentType = "LIMIT_REACHED"
)

// Intent is the parsed meaning of a question.
type Intent struct {
	Type       IntentType
	Confidence float64
	Params     Params
}

// Params is one of TopScorersParams, PlayerAvgPointsParams, TeamNetRatingParams or NoParams.
type Params interface {
	intent() IntentType
}

type TopScorersParams struct {
	Season string `json:"season,omitempty"`
	Limit  int    `json:"limit"`
}

type PlayerAvgPointsParams struct {
	PlayerName string `json:"playerName"`
	LastNGames int    `json:"lastNGames"`
	Season     string `json:"season,omitempty"`
}

type TeamNetRatingParams struct {
	TeamName string `json:"teamName"`
	Season   string `json:"season,omitempty"`
	Limit    int    `json:"limit"`
}

type NoParams struct{}

func (TopScorersParams) intent() IntentType      { return IntentTopScorersSeason }
func (PlayerAvgPointsParams) intent() IntentType { return IntentPlayerAvgPointsLastN }
func (TeamNetRatingParams) intent() IntentType   { return IntentTeamNetRatingTrend }
func (NoParams) intent() IntentType              { return IntentUnknown }
