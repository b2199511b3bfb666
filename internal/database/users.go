package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUser creates the user row for an address when it does not exist yet.
func (db *DB) EnsureUser(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	err := db.g.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&User{ID: id}).Error

	return errors.Wrapf(err, "ensuring user %s", id)
}

func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	user := new(User)

	err := db.g.WithContext(ctx).First(user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting user %s", id)
	}

	return user, nil
}

// IncrementUserStats bumps a user's trade count and traded volume.
func (db *DB) IncrementUserStats(ctx context.Context, id string, trades, volume uint64) error {
	if id == "" {
		return nil
	}

	err := db.g.WithContext(ctx).Model(&User{ID: id}).
		UpdateColumns(map[string]interface{}{
			"total_trades": gorm.Expr("total_trades + ?", trades),
			"total_volume": gorm.Expr("total_volume + ?", volume),
		}).Error

	return errors.Wrapf(err, "incrementing stats for user %s", id)
}
