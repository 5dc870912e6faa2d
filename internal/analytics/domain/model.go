// Package domain holds read models over the basketball analytics views.
package domain

import "context"

// RegularSeason is the only season type reports read.
const RegularSeason = "regular"

type ScorerRow struct {
	PlayerID   string
	PlayerName string
	TeamAbbrev string
	Games      int64
	PPG        float64
}

type Player struct {
	PlayerID string
	FullName string
}

type PlayerGame struct {
	GameDate string
	Opponent string
	Points   float64
}

type Team struct {
	TeamID     string
	TeamAbbrev string
	TeamName   string
}

type NetRatingPoint struct {
	GameDate  string
	NetRating float64
}

// Datastore is the read-only query surface report templates run against.
// Lookups return nil without error when nothing matches. Every call honors
// ctx cancellation.
type Datastore interface {
	LatestSeason(ctx context.Context) (string, error)
	TopScorers(ctx context.Context, season string, minGames, limit int) ([]ScorerRow, error)
	FindPlayer(ctx context.Context, name string) (*Player, error)
	// PlayerGames returns the most recent games first.
	PlayerGames(ctx context.Context, playerID, season string, limit int) ([]PlayerGame, error)
	FindTeam(ctx context.Context, name string) (*Team, error)
	// TeamNetRatings returns the most recent games first.
	TeamNetRatings(ctx context.Context, teamAbbrev, season string, limit int) ([]NetRatingPoint, error)
}
