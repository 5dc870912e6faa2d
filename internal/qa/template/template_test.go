package template

import (
	"context"
	"testing"

	analytics "github.com/smallbiznis/courtside/internal/analytics/domain"
	"github.com/smallbiznis/courtside/internal/analytics/analyticstest"
	"github.com/smallbiznis/courtside/internal/qa/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopScorers(t *testing.T) {
	store := &analyticstest.Store{Scorers: []analytics.ScorerRow{
		{PlayerName: "Luka Doncic", TeamAbbrev: "DAL", Games: 70, PPG: 33.9},
		{PlayerName: "Giannis Antetokounmpo", TeamAbbrev: "MIL", Games: 73, PPG: 30.4},
	}}

	res, err := New(store).Execute(context.Background(), domain.Intent{
		Type:   domain.IntentTopScorersSeason,
		Params: domain.TopScorersParams{Season: "2023-24", Limit: 10},
	}, 50)
	require.NoError(t, err)

	assert.Equal(t, "Top scorers for 2023-24 are ranked by regular-season points per game.", res.Answer)
	require.NotNil(t, res.Table)
	assert.Equal(t, []string{"Player", "Team", "Games", "PPG"}, res.Table.Columns)
	assert.Equal(t, []any{"Luka Doncic", "DAL", int64(70), 33.9}, res.Table.Rows[0])
	require.NotNil(t, res.ChartSpec)
	assert.Equal(t, "bar", res.ChartSpec.Type)
	assert.Equal(t, []string{"Luka Doncic", "Giannis Antetokounmpo"}, res.ChartSpec.X)
	assert.Equal(t, []float64{33.9, 30.4}, res.ChartSpec.Y)
	assert.Equal(t, "Top scorers (2023-24)", res.ChartSpec.Title)
	assert.NotContains(t, store.Calls(), "LatestSeason")
}

func TestTopScorersLimitClampedToRowLimit(t *testing.T) {
	store := &analyticstest.Store{Season: "2024-25"}
	exec := New(store)

	_, err := exec.Execute(context.Background(), domain.Intent{Params: domain.TopScorersParams{Limit: 10}}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, store.LastLimit)

	_, err = exec.Execute(context.Background(), domain.Intent{Params: domain.TopScorersParams{Limit: 1}}, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, store.LastLimit)
}

func TestTopScorersEmptyUsesLatestSeason(t *testing.T) {
	store := &analyticstest.Store{Season: "2024-25"}
	res, err := New(store).Execute(context.Background(), domain.Intent{Params: domain.TopScorersParams{Season: "24-25"}}, 50)
	require.NoError(t, err)
	assert.Equal(t, "No scoring data was found for season 2024-25.", res.Answer)
	assert.Nil(t, res.Table)
	assert.Nil(t, res.ChartSpec)
}

func TestSeasonFallbackWhenDatastoreEmpty(t *testing.T) {
	res, err := New(&analyticstest.Store{}).Execute(context.Background(), domain.Intent{Params: domain.TopScorersParams{}}, 50)
	require.NoError(t, err)
	assert.Equal(t, "No scoring data was found for season 2025-26.", res.Answer)
}

func TestPlayerAverage(t *testing.T) {
	store := &analyticstest.Store{
		Season:  "2024-25",
		Players: []analytics.Player{{PlayerID: "p1", FullName: "Jayson Tatum"}},
		Games: []analytics.PlayerGame{
			{GameDate: "2024-11-06", Opponent: "NYK", Points: 30},
			{GameDate: "2024-11-05", Opponent: "MIA", Points: 25},
			{GameDate: "2024-11-04", Opponent: "PHI", Points: 35},
		},
	}

	res, err := New(store).Execute(context.Background(), domain.Intent{
		Params: domain.PlayerAvgPointsParams{PlayerName: "Jayson Tatum", LastNGames: 8},
	}, 50)
	require.NoError(t, err)

	assert.Equal(t, "Jayson Tatum averaged 30.00 points across the last 3 regular-season games in 2024-25.", res.Answer)
	assert.Equal(t, []string{"Game Date", "Opponent", "Points"}, res.Table.Columns)
	assert.Equal(t, []any{"2024-11-06", "NYK", 30.0}, res.Table.Rows[0])
	assert.Equal(t, []string{"2024-11-04", "2024-11-05", "2024-11-06"}, res.ChartSpec.X)
	assert.Equal(t, []float64{35, 25, 30}, res.ChartSpec.Y)
	assert.Equal(t, "line", res.ChartSpec.Type)
	assert.Equal(t, 8, store.LastLimit)
}

func TestPlayerAverageLastNClamp(t *testing.T) {
	store := &analyticstest.Store{
		Season:  "2024-25",
		Players: []analytics.Player{{PlayerID: "p1", FullName: "Jayson Tatum"}},
	}
	exec := New(store)

	_, err := exec.Execute(context.Background(), domain.Intent{Params: domain.PlayerAvgPointsParams{PlayerName: "x", LastNGames: 30}}, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, store.LastLimit)

	_, err = exec.Execute(context.Background(), domain.Intent{Params: domain.PlayerAvgPointsParams{PlayerName: "x", LastNGames: 30}}, 500)
	require.NoError(t, err)
	assert.Equal(t, 30, store.LastLimit)
}

func TestPlayerAverageMisses(t *testing.T) {
	exec := New(&analyticstest.Store{Season: "2024-25"})

	res, err := exec.Execute(context.Background(), domain.Intent{Params: domain.PlayerAvgPointsParams{PlayerName: "  "}}, 50)
	require.NoError(t, err)
	assert.Equal(t, "Please include a player name for this question.", res.Answer)

	res, err = exec.Execute(context.Background(), domain.Intent{Params: domain.PlayerAvgPointsParams{PlayerName: "Nobody"}}, 50)
	require.NoError(t, err)
	assert.Equal(t, `I couldn't find a player matching "Nobody".`, res.Answer)
	assert.Nil(t, res.Table)
}

func TestTeamNetRating(t *testing.T) {
	store := &analyticstest.Store{
		Teams: []analytics.Team{{TeamID: "t1", TeamAbbrev: "BOS", TeamName: "Boston Celtics"}},
		Ratings: []analytics.NetRatingPoint{
			{GameDate: "2024-11-03", NetRating: 10},
			{GameDate: "2024-11-02", NetRating: -2.5},
		},
	}

	res, err := New(store).Execute(context.Background(), domain.Intent{
		Params: domain.TeamNetRatingParams{TeamName: "Boston Celtics", Season: "2024-25", Limit: 20},
	}, 50)
	require.NoError(t, err)

	assert.Equal(t, "Boston Celtics posted an average net rating of 3.75 over the latest 2 regular-season games in 2024-25.", res.Answer)
	assert.Equal(t, []string{"Game Date", "Net Rating"}, res.Table.Columns)
	assert.Equal(t, "BOS net rating trend (2024-25)", res.ChartSpec.Title)
	assert.Equal(t, []string{"2024-11-02", "2024-11-03"}, res.ChartSpec.X)
	assert.Equal(t, 20, store.LastLimit)
}

func TestTeamNetRatingLimitClamp(t *testing.T) {
	store := &analyticstest.Store{Teams: []analytics.Team{{TeamAbbrev: "BOS", TeamName: "Boston Celtics"}}}
	exec := New(store)

	_, err := exec.Execute(context.Background(), domain.Intent{Params: domain.TeamNetRatingParams{TeamName: "bos", Season: "2024-25", Limit: 100}}, 500)
	require.NoError(t, err)
	assert.Equal(t, 40, store.LastLimit)

	_, err = exec.Execute(context.Background(), domain.Intent{Params: domain.TeamNetRatingParams{TeamName: "bos", Season: "2024-25", Limit: 1}}, 500)
	require.NoError(t, err)
	assert.Equal(t, 5, store.LastLimit)
}

func TestTeamNetRatingUnresolved(t *testing.T) {
	res, err := New(&analyticstest.Store{}).Execute(context.Background(), domain.Intent{
		Params: domain.TeamNetRatingParams{TeamName: "Seattle", Season: "2024-25"},
	}, 50)
	require.NoError(t, err)
	assert.Equal(t, `I couldn't resolve a team matching "Seattle".`, res.Answer)
}

func TestUnknownReturnsCapabilities(t *testing.T) {
	store := &analyticstest.Store{}
	res, err := New(store).Execute(context.Background(), domain.Intent{Type: domain.IntentUnknown, Params: domain.NoParams{}}, 50)
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "top scorers by season")
	assert.Nil(t, res.Table)
	assert.Empty(t, store.Calls())
}
