package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ProcessedTick reads the checkpoint. An empty store is initialized to zero
// before returning so that the row exists from first read onward.
func (db *DB) ProcessedTick(ctx context.Context) (uint64, error) {
	state := new(State)

	err := db.g.WithContext(ctx).First(state, globalStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = &State{ID: globalStateID, UpdatedAt: time.Now()}
		if err := db.g.WithContext(ctx).Create(state).Error; err != nil {
			return 0, errors.Wrap(err, "initializing checkpoint state")
		}

		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "reading checkpoint state")
	}

	return state.ProcessedTick, nil
}

// SaveProcessedTick durably records the checkpoint. Last write wins; the
// ingestion engine is the sole writer and only ever advances it.
func (db *DB) SaveProcessedTick(ctx context.Context, tick uint64) error {
	state := &State{ID: globalStateID, ProcessedTick: tick, UpdatedAt: time.Now()}

	err := db.g.WithContext(ctx).Save(state).Error

	return errors.Wrapf(err, "saving checkpoint at tick %d", tick)
}
