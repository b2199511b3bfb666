package database

import (
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qubic-markets/qx-indexer/internal/config"
)

const (
	createBatchSize = 1000
	globalStateID   = 1
)

type DB struct {
	g *gorm.DB
}

func New(cfg *config.DB) (*DB, error) {
	return Open(postgres.Open(formatDSN(cfg)), cfg.LogQueries)
}

// Open connects through an arbitrary gorm dialector and migrates the schema.
// Production uses postgres; tests use sqlite.
func Open(dialector gorm.Dialector, logQueries bool) (*DB, error) {
	gormCfg := gorm.Config{
		Logger:          gormlogger.Default.LogMode(getGormLogLevel(logQueries)),
		CreateBatchSize: createBatchSize,
	}

	g, err := gorm.Open(dialector, &gormCfg)
	if err != nil {
		return nil, err
	}

	err = g.AutoMigrate(State{}, Asset{}, User{}, Trade{}, Notification{})
	if err != nil {
		return nil, err
	}

	return &DB{g: g}, nil
}

func getGormLogLevel(logQueries bool) gormlogger.LogLevel {
	if logQueries {
		return gormlogger.Info
	}

	return gormlogger.Silent
}

func formatDSN(cfg *config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}

	return u.String()
}
