package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StringList is a helper type for storing a string slice as JSON text.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(data, l)
}

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string `gorm:"uniqueIndex" json:"username"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Handle   string `json:"handle"` // judge handle, empty until the user sets one
	IsAdmin  bool   `json:"is_admin"`
}

// DisplayName is the name shown on the leaderboard.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

type Contest struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Name      string    `json:"name"`
	Organizer string    `json:"organizer"`
	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `gorm:"index" json:"end_time"`

	Problems     []ContestProblem `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" json:"problems,omitempty"`
	Participants []Participant    `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

type ContestProblem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ContestID string `gorm:"uniqueIndex:idx_contest_problem_url" json:"-"`
	Position  int    `json:"-"`

	URL            string     `gorm:"uniqueIndex:idx_contest_problem_url" json:"url"`
	Name           string     `json:"name"`
	Tags           StringList `gorm:"type:text" json:"tags"`
	JudgeContestID int        `json:"judge_contest_id,omitempty"`
	JudgeIndex     string     `json:"judge_index,omitempty"`
}

// Participant is a contest roster entry. UserID is nil for entries seeded
// from contest files rather than created by registration.
type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"registered_at"`

	ContestID string  `gorm:"uniqueIndex:idx_contest_user" json:"-"`
	UserID    *string `gorm:"uniqueIndex:idx_contest_user" json:"user_id,omitempty"`

	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Handle string `json:"handle"`
}

// ContestHistory is the result a user got in a finished contest.
type ContestHistory struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-"`

	UserID         string    `gorm:"uniqueIndex:idx_user_contest" json:"-"`
	ContestID      string    `gorm:"uniqueIndex:idx_user_contest" json:"contest_id"`
	ContestName    string    `json:"contest_name"`
	ProblemsSolved int       `json:"problems_solved"`
	Penalty        int       `json:"penalty"`
	ContestDate    time.Time `json:"contest_date"`
}
