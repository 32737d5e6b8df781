package repository

import (
	"context"
	"fmt"
	"strings"

	"stock-price-alert/internal/entity"
	"stock-price-alert/pkg/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqliteBusyTimeoutMillis lets a second process (a CLI command next to a
// running serve) wait for the lock instead of failing with SQLITE_BUSY.
const sqliteBusyTimeoutMillis = 5000

// NewSQLiteAlertRepository stores alerts in an SQLite database at path. The
// collection is replaced inside a single transaction.
func NewSQLiteAlertRepository(path string, log *logger.Logger) (AlertRepository, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entity.AlertModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate alerts table: %w", err)
	}

	return newAlertRepository(&sqliteAlertStore{db: db, path: path, log: log}, log), nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", path, sep, sqliteBusyTimeoutMillis)
}

type sqliteAlertStore struct {
	db   *gorm.DB
	path string
	log  *logger.Logger
}

func (s *sqliteAlertStore) describe() string { return "sqlite:" + s.path }

func (s *sqliteAlertStore) close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *sqliteAlertStore) read(ctx context.Context) ([]entity.Alert, error) {
	var models []entity.AlertModel
	if err := s.db.WithContext(ctx).Order("position").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	alerts := make([]entity.Alert, 0, len(models))
	for _, m := range models {
		a, err := entity.AlertFromModel(m)
		if err != nil {
			s.log.WarnContext(ctx, "Skipping unreadable alert row",
				logger.StringField("alert_id", m.AlertID), logger.ErrorField(err))
			continue
		}
		alerts = append(alerts, *a)
	}
	return alerts, nil
}

func (s *sqliteAlertStore) write(ctx context.Context, alerts []entity.Alert) error {
	models := make([]entity.AlertModel, 0, len(alerts))
	for i := range alerts {
		models = append(models, alerts[i].ToModel(i))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.AlertModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear alerts: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("failed to insert alerts: %w", err)
		}
		return nil
	})
}
