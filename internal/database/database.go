package database

import (
	"os"
	"path/filepath"

	"github.com/coding-arena/arena/internal/database/models"
	"go.uber.org/zap"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlite enforces the cascade rules on problems and participants only with
// foreign keys switched on per connection. The busy timeout covers history
// writes racing admin requests.
const dsnOptions = "?_foreign_keys=1&_busy_timeout=5000"

// Init opens the sqlite database at path, creating its directory when needed,
// and migrates the schema.
func Init(path string) (*gorm.DB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		zap.S().Infof("database file not found at '%s', creating directory for it.", path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path+dsnOptions), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.ContestProblem{},
		&models.Participant{},
		&models.ContestHistory{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
