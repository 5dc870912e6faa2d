// Package analyticstest provides an in-memory Datastore for tests.
package analyticstest

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/courtside/internal/analytics/domain"
)

// Store serves fixed rows. Delay makes each call block until it elapses or ctx
// is done, and Err makes every call fail.
type Store struct {
	Season  string
	Scorers []domain.ScorerRow
	Players []domain.Player
	Games   []domain.PlayerGame
	Teams   []domain.Team
	Ratings []domain.NetRatingPoint

	Delay time.Duration
	Err   error

	mu    sync.Mutex
	calls []string
	// LastLimit is the limit passed to the most recent row query.
	LastLimit int
}

func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Store) enter(ctx context.Context, name string, limit int) error {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	if limit > 0 {
		s.LastLimit = limit
	}
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err
}

func (s *Store) LatestSeason(ctx context.Context) (string, error) {
	if err := s.enter(ctx, "LatestSeason", 0); err != nil {
		return "", err
	}
	return s.Season, nil
}

func (s *Store) TopScorers(ctx context.Context, _ string, _ int, limit int) ([]domain.ScorerRow, error) {
	if err := s.enter(ctx, "TopScorers", limit); err != nil {
		return nil, err
	}
	return head(s.Scorers, limit), nil
}

func (s *Store) FindPlayer(ctx context.Context, _ string) (*domain.Player, error) {
	if err := s.enter(ctx, "FindPlayer", 0); err != nil {
		return nil, err
	}
	if len(s.Players) == 0 {
		return nil, nil
	}
	p := s.Players[0]
	return &p, nil
}

func (s *Store) PlayerGames(ctx context.Context, _, _ string, limit int) ([]domain.PlayerGame, error) {
	if err := s.enter(ctx, "PlayerGames", limit); err != nil {
		return nil, err
	}
	return head(s.Games, limit), nil
}

func (s *Store) FindTeam(ctx context.Context, _ string) (*domain.Team, error) {
	if err := s.enter(ctx, "FindTeam", 0); err != nil {
		return nil, err
	}
	if len(s.Teams) == 0 {
		return nil, nil
	}
	t := s.Teams[0]
	return &t, nil
}

func (s *Store) TeamNetRatings(ctx context.Context, _, _ string, limit int) ([]domain.NetRatingPoint, error) {
	if err := s.enter(ctx, "TeamNetRatings", limit); err != nil {
		return nil, err
	}
	return head(s.Ratings, limit), nil
}

func head[T any](rows []T, n int) []T {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

var _ domain.Datastore = (*Store)(nil)
