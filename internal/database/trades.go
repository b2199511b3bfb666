package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTrade stores a trade exactly once per txHash. Replaying the same
// transaction returns the row created the first time with created=false, so
// reprocessing a tick never duplicates trades.
func (db *DB) CreateTrade(ctx context.Context, trade *Trade) (*Trade, bool, error) {
	if err := db.EnsureUser(ctx, trade.Maker); err != nil {
		return nil, false, err
	}
	if err := db.EnsureUser(ctx, trade.Taker); err != nil {
		return nil, false, err
	}

	res := db.g.WithContext(ctx).
		Omit("Asset").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(trade)
	if res.Error != nil {
		return nil, false, errors.Wrapf(res.Error, "creating trade %s", trade.TxHash)
	}

	if res.RowsAffected == 0 {
		existing, err := db.GetTradeByTxHash(ctx, trade.TxHash)
		if err != nil {
			return nil, false, err
		}

		return existing, false, nil
	}

	return trade, true, nil
}

func (db *DB) GetTradeByTxHash(ctx context.Context, txHash string) (*Trade, error) {
	trade := new(Trade)

	err := db.g.WithContext(ctx).
		Preload("Asset").
		Where(&Trade{TxHash: txHash}).
		First(trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting trade %s", txHash)
	}

	return trade, nil
}

// TradeQuery narrows ListTrades. Zero values leave a dimension unfiltered.
type TradeQuery struct {
	AssetID   uint64
	UserID    string
	StartTick uint64
	EndTick   uint64
	Page      int
	Limit     int
}

func (db *DB) ListTrades(ctx context.Context, q TradeQuery) ([]Trade, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	tx := db.g.WithContext(ctx).Preload("Asset").Order("created_at desc")

	if q.AssetID != 0 {
		tx = tx.Where("asset_id = ?", q.AssetID)
	}
	if q.UserID != "" {
		tx = tx.Where("maker = ? OR taker = ?", q.UserID, q.UserID)
	}
	if q.StartTick != 0 {
		tx = tx.Where("tick >= ?", q.StartTick)
	}
	if q.EndTick != 0 {
		tx = tx.Where("tick <= ?", q.EndTick)
	}

	var trades []Trade
	err := tx.Offset(pageOffset(q.Page, limit)).Limit(limit).Find(&trades).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing trades")
	}

	return trades, nil
}
