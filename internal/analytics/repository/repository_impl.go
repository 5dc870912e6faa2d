package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/courtside/internal/analytics/domain"
	"github.com/smallbiznis/courtside/internal/cache"
	"gorm.io/gorm"
)

const (
	seasonTTL = 10 * time.Minute
	lookupTTL = 30 * time.Minute
)

type repo struct {
	db      *gorm.DB
	seasons cache.Cache[string, string]
	players cache.Cache[string, domain.Player]
	teams   cache.Cache[string, domain.Team]
}

func New(db *gorm.DB) domain.Datastore {
	return &repo{
		db:      db,
		seasons: cache.NewTTLCache[string, string](),
		players: cache.NewTTLCache[string, domain.Player](),
		teams:   cache.NewTTLCache[string, domain.Team](),
	}
}

func (r *repo) LatestSeason(ctx context.Context) (string, error) {
	if season, ok := r.seasons.Get("latest"); ok {
		return season, nil
	}

	var seasons []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT season FROM v_games ORDER BY season DESC LIMIT 1`).
		Scan(&seasons).Error
	if err != nil {
		return "", err
	}
	if len(seasons) == 0 {
		return "", nil
	}
	r.seasons.Set("latest", seasons[0], seasonTTL)
	return seasons[0], nil
}

func (r *repo) TopScorers(ctx context.Context, season string, minGames, limit int) ([]domain.ScorerRow, error) {
	var rows []domain.ScorerRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			player_id,
			player_name,
			MAX(team_abbrev) AS team_abbrev,
			COUNT(*) AS games,
			AVG(points) AS ppg
		FROM v_player_game_logs
		WHERE season = ? AND season_type = ?
		GROUP BY player_id, player_name
		HAVING COUNT(*) >= ?
		ORDER BY ppg DESC, player_name ASC
		LIMIT ?`,
		season, domain.RegularSeason, minGames, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].PPG = round2(rows[i].PPG)
	}
	return rows, nil
}

func (r *repo) FindPlayer(ctx context.Context, name string) (*domain.Player, error) {
	key := slug.Make(name)
	if p, ok := r.players.Get(key); ok {
		return &p, nil
	}

	var players []domain.Player
	err := r.db.WithContext(ctx).Raw(`
		SELECT player_id, full_name
		FROM v_players
		WHERE LOWER(full_name) LIKE ? ESCAPE '!'
		ORDER BY full_name ASC
		LIMIT 1`,
		containsPattern(strings.ToLower(strings.TrimSpace(name))),
	).Scan(&players).Error
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, nil
	}
	r.players.Set(key, players[0], lookupTTL)
	return &players[0], nil
}

func (r *repo) PlayerGames(ctx context.Context, playerID, season string, limit int) ([]domain.PlayerGame, error) {
	date := dateText(r.db.Dialector.Name())
	var games []domain.PlayerGame
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			`+date+` AS game_date,
			opponent_team_abbrev AS opponent,
			points
		FROM v_player_game_logs
		WHERE player_id = ? AND season = ? AND season_type = ?
		ORDER BY COALESCE(`+date+`, '1900-01-01') DESC, game_id DESC
		LIMIT ?`,
		playerID, season, domain.RegularSeason, limit,
	).Scan(&games).Error
	return games, err
}

func (r *repo) FindTeam(ctx context.Context, name string) (*domain.Team, error) {
	key := slug.Make(name)
	if t, ok := r.teams.Get(key); ok {
		return &t, nil
	}

	trimmed := strings.TrimSpace(name)
	var teams []domain.Team
	err := r.db.WithContext(ctx).Raw(`
		SELECT team_id, team_abbrev, team_name
		FROM v_teams
		WHERE LOWER(team_name) LIKE ? ESCAPE '!'
		   OR team_abbrev = ?
		ORDER BY team_abbrev
		LIMIT 1`,
		containsPattern(strings.ToLower(trimmed)), strings.ToUpper(trimmed),
	).Scan(&teams).Error
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, nil
	}
	r.teams.Set(key, teams[0], lookupTTL)
	return &teams[0], nil
}

func (r *repo) TeamNetRatings(ctx context.Context, teamAbbrev, season string, limit int) ([]domain.NetRatingPoint, error) {
	date := dateText(r.db.Dialector.Name())
	var points []domain.NetRatingPoint
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			`+date+` AS game_date,
			net_rating
		FROM v_team_game_ratings
		WHERE team_abbrev = ? AND season = ? AND season_type = ?
		ORDER BY COALESCE(`+date+`, '1900-01-01') DESC, game_id DESC
		LIMIT ?`,
		teamAbbrev, season, domain.RegularSeason, limit,
	).Scan(&points).Error
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i].NetRating = round2(points[i].NetRating)
	}
	return points, nil
}

// containsPattern builds a LIKE pattern matching s anywhere, escaping wildcards
// with '!'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// dateText renders game_date as text. MySQL has no TEXT cast target.
func dateText(dialect string) string {
	if dialect == "mysql" {
		return "CAST(game_date AS CHAR)"
	}
	return "CAST(game_date AS TEXT)"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
