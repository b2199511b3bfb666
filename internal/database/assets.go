package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FindAsset returns the asset for a (name, issuer) pair, or nil when none
// exists.
func (db *DB) FindAsset(ctx context.Context, name, issuer string) (*Asset, error) {
	asset := new(Asset)

	err := db.g.WithContext(ctx).
		Where(&Asset{Name: name, Issuer: issuer}).
		First(asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding asset %s/%s", name, issuer)
	}

	return asset, nil
}

// CreateAsset creates the asset unless the (name, issuer) pair already
// exists, in which case the existing row is returned.
func (db *DB) CreateAsset(ctx context.Context, name, issuer string) (*Asset, error) {
	existing, err := db.FindAsset(ctx, name, issuer)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	asset := &Asset{Name: name, Issuer: issuer}
	if err := db.g.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, errors.Wrapf(err, "creating asset %s/%s", name, issuer)
	}

	return asset, nil
}

func (db *DB) GetAsset(ctx context.Context, id uint64) (*Asset, error) {
	asset := new(Asset)

	err := db.g.WithContext(ctx).First(asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting asset %d", id)
	}

	return asset, nil
}

func (db *DB) ListAssets(ctx context.Context, page, limit int) ([]Asset, error) {
	var assets []Asset

	err := db.g.WithContext(ctx).
		Order("created_at desc").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&assets).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing assets")
	}

	return assets, nil
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
