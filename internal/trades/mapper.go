// Package trades turns decoded QX log records into stored trades, assets and
// user notifications.
package trades

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/qubic-markets/qx-indexer/internal/database"
	"github.com/qubic-markets/qx-indexer/internal/eventlog"
	"github.com/qubic-markets/qx-indexer/internal/notify"
)

// Store is the slice of the persistence layer the mapper needs.
type Store interface {
	FindAsset(ctx context.Context, name, issuer string) (*database.Asset, error)
	CreateAsset(ctx context.Context, name, issuer string) (*database.Asset, error)
	CreateTrade(ctx context.Context, trade *database.Trade) (*database.Trade, bool, error)
	IncrementUserStats(ctx context.Context, id string, trades, volume uint64) error
}

// Notifier delivers user and system notifications and the live trade feed.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) error
	BroadcastTrade(ctx context.Context, trade *database.Trade) error
}

type Mapper struct {
	store    Store
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewMapper(store Store, notifier Notifier, log *zap.SugaredLogger) *Mapper {
	return &Mapper{store: store, notifier: notifier, log: log}
}

// Dispatch processes one combined log record. Errors are returned for the
// caller to log; they must not abort sibling records of the same tick.
func (m *Mapper) Dispatch(ctx context.Context, record eventlog.CombinedLog) error {
	name, issuer := record.AssetKey()
	if name == "" {
		m.log.Debugw("skipping record without asset identity", "tick", record.Tick, "tx", record.TxHash)
		return nil
	}

	if record.LogType == eventlog.QXLogIssuance {
		return m.handleIssuance(ctx, record, name, issuer)
	}

	// Ask/bid logs without an asset movement are order placements, not
	// executions.
	isOrder := record.LogType == eventlog.QXLogAskOrder || record.LogType == eventlog.QXLogBidOrder
	if isOrder && record.Transfer == nil {
		m.log.Debugw("skipping order placement", "tick", record.Tick, "tx", record.TxHash, "log_type", record.LogType)
		return nil
	}

	return m.handleTrade(ctx, record, name, issuer)
}

func (m *Mapper) handleIssuance(ctx context.Context, record eventlog.CombinedLog, name, issuer string) error {
	existing, err := m.store.FindAsset(ctx, name, issuer)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	asset, err := m.store.CreateAsset(ctx, name, issuer)
	if err != nil {
		return err
	}

	m.log.Infow("new asset issued", "asset", asset.Name, "issuer", asset.Issuer, "tick", record.Tick)

	err = m.notifier.Notify(ctx, notify.SystemUser,
		"New Asset Issued",
		fmt.Sprintf("Asset %s has been issued by %s", asset.Name, asset.Issuer),
	)
	if err != nil {
		m.log.Warnw("asset issuance notification failed", "asset", asset.Name, "error", err)
	}

	return nil
}

func (m *Mapper) handleTrade(ctx context.Context, record eventlog.CombinedLog, name, issuer string) error {
	var price, amount uint64
	if record.Trade != nil {
		price = record.Trade.Price
		amount = record.Trade.Amount
	}
	// Transfer fields win over trade-log fields when both are present.
	var maker, taker string
	if record.Transfer != nil {
		maker = record.Transfer.From
		taker = record.Transfer.To
		if record.Transfer.Amount != 0 {
			amount = record.Transfer.Amount
		}
	}

	asset, err := m.store.CreateAsset(ctx, name, issuer)
	if err != nil {
		return err
	}

	trade := &database.Trade{
		Maker:   maker,
		Taker:   taker,
		Price:   price,
		Amount:  amount,
		Tick:    record.Tick,
		AssetID: asset.ID,
		TxHash:  record.TxHash,
	}

	stored, created, err := m.store.CreateTrade(ctx, trade)
	if err != nil {
		return err
	}
	if !created {
		m.log.Debugw("trade already indexed", "tx", record.TxHash, "tick", record.Tick)
		return nil
	}

	volume := price * amount
	if err := m.store.IncrementUserStats(ctx, maker, 1, volume); err != nil {
		m.log.Warnw("updating maker stats failed", "user", maker, "error", err)
	}
	if err := m.store.IncrementUserStats(ctx, taker, 1, volume); err != nil {
		m.log.Warnw("updating taker stats failed", "user", taker, "error", err)
	}

	m.notifyParties(ctx, stored, asset.Name, amount, price)

	if err := m.notifier.BroadcastTrade(ctx, stored); err != nil {
		m.log.Warnw("broadcasting trade failed", "tx", stored.TxHash, "error", err)
	}

	return nil
}

func (m *Mapper) notifyParties(ctx context.Context, trade *database.Trade, assetName string, amount, price uint64) {
	if trade.Maker != "" {
		err := m.notifier.Notify(ctx, trade.Maker, "Trade Executed",
			fmt.Sprintf("Your sell order for %d %s at %d QU has been executed", amount, assetName, price))
		if err != nil {
			m.log.Warnw("maker notification failed", "user", trade.Maker, "error", err)
		}
	}

	if trade.Taker != "" {
		err := m.notifier.Notify(ctx, trade.Taker, "Trade Executed",
			fmt.Sprintf("Your buy order for %d %s at %d QU has been executed", amount, assetName, price))
		if err != nil {
			m.log.Warnw("taker notification failed", "user", trade.Taker, "error", err)
		}
	}
}
