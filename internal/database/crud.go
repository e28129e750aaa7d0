package database

import (
	"errors"
	"time"

	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/standings"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAlreadyRegistered = errors.New("already registered")

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserHandle sets the judge handle of a user. Rosters the user already
// joined keep the handle they registered with.
func UpdateUserHandle(db *gorm.DB, userID, handle string) error {
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("handle", handle)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Contest CRUD
func CreateContest(db *gorm.DB, contest *models.Contest) error {
	if contest.ID == "" {
		contest.ID = uuid.NewString()
	}
	for i := range contest.Problems {
		contest.Problems[i].Position = i
	}
	return db.Create(contest).Error
}

func GetContest(db *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	err := db.
		Preload("Problems", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("id = ?", id).
		First(&contest).Error
	if err != nil {
		return nil, err
	}
	return &contest, nil
}

// ListContests returns every contest without problems or roster, most recent first.
func ListContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Order("start_time desc").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// ListUnfinishedContestIDs returns the ids of contests whose end is after now.
func ListUnfinishedContestIDs(db *gorm.DB, now time.Time) ([]string, error) {
	var ids []string
	err := db.Model(&models.Contest{}).
		Where("end_time > ?", now).
		Order("start_time asc").
		Pluck("id", &ids).Error
	return ids, err
}

// UpsertContest writes a contest definition that is owned by a seed file:
// contest fields and problems are replaced, seeded participants are replaced,
// and participants that registered themselves are kept.
func UpsertContest(db *gorm.DB, contest *models.Contest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "organizer", "start_time", "end_time", "updated_at"}),
		}).Omit(clause.Associations).Create(contest).Error
		if err != nil {
			return err
		}

		if err := tx.Where("contest_id = ?", contest.ID).Delete(&models.ContestProblem{}).Error; err != nil {
			return err
		}
		for i := range contest.Problems {
			contest.Problems[i].ID = 0
			contest.Problems[i].ContestID = contest.ID
			contest.Problems[i].Position = i
		}
		if len(contest.Problems) > 0 {
			if err := tx.Create(&contest.Problems).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("contest_id = ? AND user_id IS NULL", contest.ID).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		for i := range contest.Participants {
			contest.Participants[i].ID = 0
			contest.Participants[i].ContestID = contest.ID
			contest.Participants[i].UserID = nil
		}
		if len(contest.Participants) > 0 {
			if err := tx.Create(&contest.Participants).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddProblems appends problems to a contest. Problems whose URL is already in
// the contest are skipped.
func AddProblems(db *gorm.DB, contestID string, problems []models.ContestProblem) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var contest models.Contest
		if err := tx.Select("id").Where("id = ?", contestID).First(&contest).Error; err != nil {
			return err
		}

		var next int64
		if err := tx.Model(&models.ContestProblem{}).Where("contest_id = ?", contestID).Count(&next).Error; err != nil {
			return err
		}
		for i := range problems {
			problems[i].ID = 0
			problems[i].ContestID = contestID
			problems[i].Position = int(next) + i
		}
		if len(problems) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&problems).Error
	})
}

func AddParticipant(db *gorm.DB, p *models.Participant) error {
	var count int64
	if err := db.Model(&models.Contest{}).Where("id = ?", p.ContestID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.Create(p).Error
}

// RegisterForContest adds user to the roster of contestID using the handle the
// user has on file at this moment.
func RegisterForContest(db *gorm.DB, user *models.User, contestID string, now time.Time) (*models.Participant, error) {
	var p *models.Participant
	err := db.Transaction(func(tx *gorm.DB) error {
		var contest models.Contest
		if err := tx.Where("id = ?", contestID).First(&contest).Error; err != nil {
			return err
		}
		if !now.Before(contest.EndTime) {
			return standings.ErrContestEnded
		}

		var count int64
		if err := tx.Model(&models.Participant{}).Where("contest_id = ? AND user_id = ?", contestID, user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}

		userID := user.ID
		p = &models.Participant{
			ContestID: contestID,
			UserID:    &userID,
			Name:      user.DisplayName(),
			Email:     user.Email,
			Handle:    user.Handle,
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func IsRegistered(db *gorm.DB, userID, contestID string) (bool, error) {
	var count int64
	err := db.Model(&models.Participant{}).Where("contest_id = ? AND user_id = ?", contestID, userID).Count(&count).Error
	return count > 0, err
}

// RecordContestHistory stores the final result of every registered user in
// final. Records without a user (seeded roster entries) are skipped, and rows
// that already exist are left untouched. It returns the number of rows written.
func RecordContestHistory(db *gorm.DB, contest *models.Contest, final *standings.Standings) (int, error) {
	var rows []models.ContestHistory
	for _, r := range final.Records {
		if r.UserID == "" {
			continue
		}
		rows = append(rows, models.ContestHistory{
			UserID:         r.UserID,
			ContestID:      contest.ID,
			ContestName:    contest.Name,
			ProblemsSolved: r.Solved,
			Penalty:        r.Penalty,
			ContestDate:    contest.StartTime,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return int(res.RowsAffected), res.Error
}

func GetContestHistoryForUser(db *gorm.DB, userID string) ([]models.ContestHistory, error) {
	var history []models.ContestHistory
	if err := db.Where("user_id = ?", userID).Order("contest_date desc").Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
