package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/smallbiznis/courtside/internal/analytics/domain"
	"github.com/smallbiznis/courtside/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE v_games (game_id TEXT, season TEXT)`,
		`CREATE TABLE v_players (player_id TEXT, full_name TEXT)`,
		`CREATE TABLE v_teams (team_id TEXT, team_abbrev TEXT, team_name TEXT)`,
		`CREATE TABLE v_player_game_logs (player_id TEXT, player_name TEXT, team_abbrev TEXT, season TEXT,
			season_type TEXT, game_id TEXT, game_date TEXT, opponent_team_abbrev TEXT, points INTEGER)`,
		`CREATE TABLE v_team_game_ratings (team_abbrev TEXT, season TEXT, season_type TEXT, game_id TEXT,
			game_date TEXT, net_rating REAL)`,
		`INSERT INTO v_games VALUES ('g1', '2023-24'), ('g2', '2024-25')`,
		`INSERT INTO v_players VALUES ('p1', 'Jayson Tatum'), ('p2', 'Jaylen Brown'), ('p3', 'Luka Doncic')`,
		`INSERT INTO v_teams VALUES ('t1', 'BOS', 'Boston Celtics'), ('t2', 'DAL', 'Dallas Mavericks')`,
	}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	// Tatum 6 games (avg 27.5), Brown 5 games (avg 24), Doncic 4 games (not qualified).
	insertLogs := func(id, name, team string, points []int) {
		for i, p := range points {
			require.NoError(t, conn.Exec(
				`INSERT INTO v_player_game_logs VALUES (?, ?, ?, '2024-25', 'regular', ?, ?, 'NYK', ?)`,
				id, name, team, fmt.Sprintf("%s-%02d", id, i), fmt.Sprintf("2024-11-%02d", i+1), p,
			).Error)
		}
	}
	insertLogs("p1", "Jayson Tatum", "BOS", []int{20, 25, 30, 35, 25, 30})
	insertLogs("p2", "Jaylen Brown", "BOS", []int{20, 22, 24, 26, 28})
	insertLogs("p3", "Luka Doncic", "DAL", []int{40, 40, 40, 40})
	require.NoError(t, conn.Exec(
		`INSERT INTO v_player_game_logs VALUES ('p1', 'Jayson Tatum', 'BOS', '2024-25', 'playoffs', 'p1-po', '2025-04-20', 'MIA', 50)`,
	).Error)

	for i, rating := range []float64{5.123, -2.5, 10} {
		require.NoError(t, conn.Exec(
			`INSERT INTO v_team_game_ratings VALUES ('BOS', '2024-25', 'regular', ?, ?, ?)`,
			fmt.Sprintf("g%02d", i), fmt.Sprintf("2024-11-%02d", i+1), rating,
		).Error)
	}
	return conn
}

func TestLatestSeason(t *testing.T) {
	store := New(seed(t))
	season, err := store.LatestSeason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-25", season)
}

func TestLatestSeasonEmpty(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE v_games (game_id TEXT, season TEXT)`).Error)

	season, err := New(conn).LatestSeason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", season)
}

func TestTopScorers(t *testing.T) {
	store := New(seed(t))
	rows, err := store.TopScorers(context.Background(), "2024-25", 5, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Jayson Tatum", rows[0].PlayerName)
	assert.Equal(t, "BOS", rows[0].TeamAbbrev)
	assert.Equal(t, int64(6), rows[0].Games)
	assert.Equal(t, 27.5, rows[0].PPG)
	assert.Equal(t, "Jaylen Brown", rows[1].PlayerName)
	assert.Equal(t, 24.0, rows[1].PPG)

	limited, err := store.TopScorers(context.Background(), "2024-25", 5, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFindPlayerCaseInsensitive(t *testing.T) {
	store := New(seed(t))
	p, err := store.FindPlayer(context.Background(), "tatum")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.PlayerID)
	assert.Equal(t, "Jayson Tatum", p.FullName)

	missing, err := store.FindPlayer(context.Background(), "Michael Jordan")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPlayerGamesMostRecentFirst(t *testing.T) {
	store := New(seed(t))
	games, err := store.PlayerGames(context.Background(), "p1", "2024-25", 3)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "2024-11-06", games[0].GameDate)
	assert.Equal(t, 30.0, games[0].Points)
	assert.Equal(t, "NYK", games[0].Opponent)
	assert.Equal(t, "2024-11-04", games[2].GameDate)
}

func TestFindTeamByNameOrAbbrev(t *testing.T) {
	store := New(seed(t))
	ctx := context.Background()

	byName, err := store.FindTeam(ctx, "celtics")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "BOS", byName.TeamAbbrev)

	byAbbrev, err := store.FindTeam(ctx, "dal")
	require.NoError(t, err)
	require.NotNil(t, byAbbrev)
	assert.Equal(t, "Dallas Mavericks", byAbbrev.TeamName)
}

func TestTeamNetRatings(t *testing.T) {
	store := New(seed(t))
	points, err := store.TeamNetRatings(context.Background(), "BOS", "2024-25", 10)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-11-03", points[0].GameDate)
	assert.Equal(t, 10.0, points[0].NetRating)
	assert.Equal(t, 5.12, points[2].NetRating)
}

func TestCanceledContextAbortsQuery(t *testing.T) {
	store := New(seed(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.TopScorers(ctx, "2024-25", 5, 10)
	assert.Error(t, err)
}

func TestLikeWildcardsInNamesAreLiteral(t *testing.T) {
	store := New(seed(t))
	ctx := context.Background()

	for _, name := range []string{"%", "_", "ja%um"} {
		p, err := store.FindPlayer(ctx, name)
		require.NoError(t, err)
		assert.Nil(t, p, name)
	}

	team, err := store.FindTeam(ctx, "%")
	require.NoError(t, err)
	assert.Nil(t, team)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%tatum%", containsPattern("tatum"))
	assert.Equal(t, "%50!%!_off!!%", containsPattern("50%_off!"))
}

func TestDateTextPerDialect(t *testing.T) {
	assert.Equal(t, "CAST(game_date AS CHAR)", dateText("mysql"))
	assert.Equal(t, "CAST(game_date AS TEXT)", dateText("postgres"))
	assert.Equal(t, "CAST(game_date AS TEXT)", dateText("sqlite"))
}

var _ domain.Datastore = (*repo)(nil)
