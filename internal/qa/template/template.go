// Package template runs the fixed report templates behind each question intent.
package template

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	analytics "github.com/smallbiznis/courtside/internal/analytics/domain"
	"github.com/smallbiznis/courtside/internal/qa/domain"
)

const (
	// FallbackSeason is used when the datastore knows no seasons at all.
	FallbackSeason = "2025-26"

	topScorersMinGames = 5

	capabilities = "I can currently answer: top scorers by season, player average points over last N games, and team net rating trends."
)

var seasonRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

type Executor struct {
	store analytics.Datastore
}

func New(store analytics.Datastore) *Executor {
	return &Executor{store: store}
}

// Execute runs the template for intent. rowLimit caps result sizes and comes
// from the caller's entitlement.
func (e *Executor) Execute(ctx context.Context, intent domain.Intent, rowLimit int) (domain.Result, error) {
	switch p := intent.Params.(type) {
	case domain.TopScorersParams:
		return e.topScorers(ctx, p, rowLimit)
	case domain.PlayerAvgPointsParams:
		return e.playerAverage(ctx, p, rowLimit)
	case domain.TeamNetRatingParams:
		return e.teamNetRating(ctx, p, rowLimit)
	default:
		return domain.Result{Answer: capabilities}, nil
	}
}

func (e *Executor) topScorers(ctx context.Context, p domain.TopScorersParams, rowLimit int) (domain.Result, error) {
	season, err := e.season(ctx, p.Season)
	if err != nil {
		return domain.Result{}, err
	}
	limit := clamp(orDefault(p.Limit, 10), 3, rowLimit)

	rows, err := e.store.TopScorers(ctx, season, topScorersMinGames, limit)
	if err != nil {
		return domain.Result{}, fmt.Errorf("top scorers: %w", err)
	}
	if len(rows) == 0 {
		return domain.Result{Answer: fmt.Sprintf("No scoring data was found for season %s.", season)}, nil
	}

	table := &domain.Table{Columns: []string{"Player", "Team", "Games", "PPG"}}
	chart := &domain.ChartSpec{Type: "bar", Title: fmt.Sprintf("Top scorers (%s)", season)}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{r.PlayerName, r.TeamAbbrev, r.Games, r.PPG})
		chart.X = append(chart.X, r.PlayerName)
		chart.Y = append(chart.Y, r.PPG)
	}
	return domain.Result{
		Answer:    fmt.Sprintf("Top scorers for %s are ranked by regular-season points per game.", season),
		Table:     table,
		ChartSpec: chart,
	}, nil
}

func (e *Executor) playerAverage(ctx context.Context, p domain.PlayerAvgPointsParams, rowLimit int) (domain.Result, error) {
	name := strings.TrimSpace(p.PlayerName)
	if name == "" {
		return domain.Result{Answer: "Please include a player name for this question."}, nil
	}
	season, err := e.season(ctx, p.Season)
	if err != nil {
		return domain.Result{}, err
	}
	lastN := clamp(orDefault(p.LastNGames, 10), 3, min(30, rowLimit))

	player, err := e.store.FindPlayer(ctx, name)
	if err != nil {
		return domain.Result{}, fmt.Errorf("find player: %w", err)
	}
	if player == nil {
		return domain.Result{Answer: fmt.Sprintf("I couldn't find a player matching %q.", name)}, nil
	}

	games, err := e.store.PlayerGames(ctx, player.PlayerID, season, lastN)
	if err != nil {
		return domain.Result{}, fmt.Errorf("player games: %w", err)
	}
	if len(games) == 0 {
		return domain.Result{Answer: fmt.Sprintf("No game logs were found for %s in %s.", player.FullName, season)}, nil
	}

	table := &domain.Table{Columns: []string{"Game Date", "Opponent", "Points"}}
	chart := &domain.ChartSpec{Type: "line", Title: fmt.Sprintf("%s points trend", player.FullName)}
	var total float64
	for _, g := range games {
		total += g.Points
		table.Rows = append(table.Rows, []any{g.GameDate, g.Opponent, g.Points})
	}
	for i := len(games) - 1; i >= 0; i-- {
		chart.X = append(chart.X, games[i].GameDate)
		chart.Y = append(chart.Y, games[i].Points)
	}

	return domain.Result{
		Answer: fmt.Sprintf("%s averaged %.2f points across the last %d regular-season games in %s.",
			player.FullName, total/float64(len(games)), len(games), season),
		Table:     table,
		ChartSpec: chart,
	}, nil
}

func (e *Executor) teamNetRating(ctx context.Context, p domain.TeamNetRatingParams, rowLimit int) (domain.Result, error) {
	name := strings.TrimSpace(p.TeamName)
	if name == "" {
		return domain.Result{Answer: "Please include a team name for this net rating question."}, nil
	}
	season, err := e.season(ctx, p.Season)
	if err != nil {
		return domain.Result{}, err
	}
	limit := clamp(orDefault(p.Limit, 20), 5, min(40, rowLimit))

	team, err := e.store.FindTeam(ctx, name)
	if err != nil {
		return domain.Result{}, fmt.Errorf("find team: %w", err)
	}
	if team == nil {
		return domain.Result{Answer: fmt.Sprintf("I couldn't resolve a team matching %q.", name)}, nil
	}

	points, err := e.store.TeamNetRatings(ctx, team.TeamAbbrev, season, limit)
	if err != nil {
		return domain.Result{}, fmt.Errorf("team net ratings: %w", err)
	}
	if len(points) == 0 {
		return domain.Result{Answer: fmt.Sprintf("No net rating trend rows were found for %s in %s.", team.TeamName, season)}, nil
	}

	table := &domain.Table{Columns: []string{"Game Date", "Net Rating"}}
	chart := &domain.ChartSpec{Type: "line", Title: fmt.Sprintf("%s net rating trend (%s)", team.TeamAbbrev, season)}
	var total float64
	for _, pt := range points {
		total += pt.NetRating
		table.Rows = append(table.Rows, []any{pt.GameDate, pt.NetRating})
	}
	for i := len(points) - 1; i >= 0; i-- {
		chart.X = append(chart.X, points[i].GameDate)
		chart.Y = append(chart.Y, points[i].NetRating)
	}

	return domain.Result{
		Answer: fmt.Sprintf("%s posted an average net rating of %.2f over the latest %d regular-season games in %s.",
			team.TeamName, total/float64(len(points)), len(points), season),
		Table:     table,
		ChartSpec: chart,
	}, nil
}

// season keeps a well-formed season and otherwise substitutes the latest known one.
func (e *Executor) season(ctx context.Context, requested string) (string, error) {
	if seasonRe.MatchString(requested) {
		return requested, nil
	}
	latest, err := e.store.LatestSeason(ctx)
	if err != nil {
		return "", fmt.Errorf("latest season: %w", err)
	}
	if latest == "" {
		return FallbackSeason, nil
	}
	return latest, nil
}

// clamp gives lo precedence when hi < lo.
func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
