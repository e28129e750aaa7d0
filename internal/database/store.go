package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/standings"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store serves contests to the standings engine.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetContest(ctx context.Context, id string) (*standings.Contest, error) {
	c, err := GetContest(s.db.WithContext(ctx), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", standings.ErrContestNotFound, id)
		}
		return nil, err
	}
	return ToStandingsContest(c), nil
}

// ToStandingsContest converts a stored contest, with problems and roster
// preloaded, to the engine's view of it.
func ToStandingsContest(c *models.Contest) *standings.Contest {
	out := &standings.Contest{
		ID:           c.ID,
		Name:         c.Name,
		Organizer:    c.Organizer,
		Start:        c.StartTime,
		End:          c.EndTime,
		Problems:     make([]standings.ContestProblem, 0, len(c.Problems)),
		Participants: make([]standings.Participant, 0, len(c.Participants)),
	}
	for _, p := range c.Problems {
		out.Problems = append(out.Problems, standings.ContestProblem{
			URL:            p.URL,
			Name:           p.Name,
			Tags:           append([]string(nil), p.Tags...),
			JudgeContestID: p.JudgeContestID,
			JudgeIndex:     p.JudgeIndex,
		})
	}
	for _, p := range c.Participants {
		sp := standings.Participant{
			Name:   p.Name,
			Email:  p.Email,
			Handle: p.Handle,
		}
		if p.UserID != nil {
			sp.UserID = *p.UserID
		}
		out.Participants = append(out.Participants, sp)
	}
	return out
}

// RecordFinal stores the contest history of the registered users of a
// contest that just ended. A nil snapshot means no cycle ever completed and
// nothing is recorded.
func (s *Store) RecordFinal(contestID string, final *standings.Standings) {
	if final == nil {
		zap.S().Infof("contest %s ended without standings, no history recorded", contestID)
		return
	}
	c, err := GetContest(s.db, contestID)
	if err != nil {
		zap.S().Errorf("load contest %s for history: %v", contestID, err)
		return
	}
	n, err := RecordContestHistory(s.db, c, final)
	if err != nil {
		zap.S().Errorf("record history for contest %s: %v", contestID, err)
		return
	}
	zap.S().Infof("recorded %d history rows for contest %s", n, contestID)
}

var _ standings.ContestStore = (*Store)(nil)
