package trades

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qubic-markets/qx-indexer/internal/database"
	"github.com/qubic-markets/qx-indexer/internal/eventlog"
	"github.com/qubic-markets/qx-indexer/internal/notify"
)

const (
	testMaker  = "MAKERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	testTaker  = "TAKERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	testIssuer = "ISSUERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
)

type fakeStore struct {
	assets     map[string]*database.Asset
	nextID     uint64
	trades     map[string]*database.Trade
	stats      map[string]uint64
	createErr  error
	tradeErr   error
	duplicates bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets: make(map[string]*database.Asset),
		trades: make(map[string]*database.Trade),
		stats:  make(map[string]uint64),
	}
}

func (s *fakeStore) FindAsset(_ context.Context, name, issuer string) (*database.Asset, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.assets[name+"/"+issuer], nil
}

func (s *fakeStore) CreateAsset(_ context.Context, name, issuer string) (*database.Asset, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	key := name + "/" + issuer
	if asset, ok := s.assets[key]; ok {
		return asset, nil
	}
	s.nextID++
	asset := &database.Asset{ID: s.nextID, Name: name, Issuer: issuer}
	s.assets[key] = asset
	return asset, nil
}

func (s *fakeStore) CreateTrade(_ context.Context, trade *database.Trade) (*database.Trade, bool, error) {
	if s.tradeErr != nil {
		return nil, false, s.tradeErr
	}
	if existing, ok := s.trades[trade.TxHash]; ok || s.duplicates {
		if existing == nil {
			existing = trade
		}
		return existing, false, nil
	}
	s.trades[trade.TxHash] = trade
	return trade, true, nil
}

func (s *fakeStore) IncrementUserStats(_ context.Context, id string, trades, _ uint64) error {
	s.stats[id] += trades
	return nil
}

type fakeNotifier struct {
	notifications []string // "user|title"
	broadcasts    []*database.Trade
	err           error
}

func (n *fakeNotifier) Notify(_ context.Context, userID, title, _ string) error {
	n.notifications = append(n.notifications, userID+"|"+title)
	return n.err
}

func (n *fakeNotifier) BroadcastTrade(_ context.Context, trade *database.Trade) error {
	n.broadcasts = append(n.broadcasts, trade)
	return n.err
}

func newMapperUnderTest() (*Mapper, *fakeStore, *fakeNotifier) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	return NewMapper(store, notifier, zap.NewNop().Sugar()), store, notifier
}

func tradeRecord() eventlog.CombinedLog {
	return eventlog.CombinedLog{
		Tick:    42,
		TxHash:  "tx-trade",
		LogType: eventlog.QXLogTrade,
		Trade: &eventlog.TradeLog{
			Issuer:    testIssuer,
			AssetName: "CFB",
			Price:     3,
			Amount:    10,
		},
		Transfer: &eventlog.TransferLog{
			From:      testMaker,
			To:        testTaker,
			Issuer:    testIssuer,
			AssetName: "CFB",
			Amount:    7,
		},
	}
}

func TestDispatchStoresTrade(t *testing.T) {
	mapper, store, notifier := newMapperUnderTest()

	require.NoError(t, mapper.Dispatch(context.Background(), tradeRecord()))

	trade := store.trades["tx-trade"]
	require.NotNil(t, trade)
	assert.Equal(t, testMaker, trade.Maker)
	assert.Equal(t, testTaker, trade.Taker)
	assert.Equal(t, uint64(3), trade.Price)
	// The transfer amount wins over the contract message amount.
	assert.Equal(t, uint64(7), trade.Amount)
	assert.Equal(t, uint64(42), trade.Tick)

	asset := store.assets["CFB/"+testIssuer]
	require.NotNil(t, asset)
	assert.Equal(t, asset.ID, trade.AssetID)

	assert.Equal(t, uint64(1), store.stats[testMaker])
	assert.Equal(t, uint64(1), store.stats[testTaker])

	require.Len(t, notifier.broadcasts, 1)
	assert.Contains(t, notifier.notifications, testMaker+"|Trade Executed")
	assert.Contains(t, notifier.notifications, testTaker+"|Trade Executed")
}

func TestDispatchWithoutTransferKeepsTradeFields(t *testing.T) {
	mapper, store, _ := newMapperUnderTest()

	record := tradeRecord()
	record.Transfer = nil

	require.NoError(t, mapper.Dispatch(context.Background(), record))

	trade := store.trades["tx-trade"]
	require.NotNil(t, trade)
	assert.Equal(t, uint64(10), trade.Amount)
	assert.Empty(t, trade.Maker)
	assert.Empty(t, trade.Taker)
}

func TestDispatchDuplicateTradeSkipsSideEffects(t *testing.T) {
	mapper, store, notifier := newMapperUnderTest()

	require.NoError(t, mapper.Dispatch(context.Background(), tradeRecord()))
	require.NoError(t, mapper.Dispatch(context.Background(), tradeRecord()))

	assert.Len(t, store.trades, 1)
	assert.Equal(t, uint64(1), store.stats[testMaker], "stats must not double count")
	assert.Len(t, notifier.broadcasts, 1)
}

func TestDispatchIssuanceCreatesAssetOnce(t *testing.T) {
	mapper, store, notifier := newMapperUnderTest()

	record := eventlog.CombinedLog{
		Tick:    7,
		TxHash:  "tx-issue",
		LogType: eventlog.QXLogIssuance,
		Trade:   &eventlog.TradeLog{Issuer: testIssuer, AssetName: "QFT"},
	}

	require.NoError(t, mapper.Dispatch(context.Background(), record))
	require.NotNil(t, store.assets["QFT/"+testIssuer])
	require.Len(t, notifier.notifications, 1)
	assert.True(t, strings.HasPrefix(notifier.notifications[0], notify.SystemUser+"|"))

	// Replaying the issuance must not notify again.
	require.NoError(t, mapper.Dispatch(context.Background(), record))
	assert.Len(t, store.assets, 1)
	assert.Len(t, notifier.notifications, 1)
}

func TestDispatchSkipsOrderPlacements(t *testing.T) {
	mapper, store, _ := newMapperUnderTest()

	placed := tradeRecord()
	placed.LogType = eventlog.QXLogAskOrder
	placed.Transfer = nil

	require.NoError(t, mapper.Dispatch(context.Background(), placed))
	assert.Empty(t, store.trades)

	// The same log type with an asset movement is an execution.
	executed := tradeRecord()
	executed.LogType = eventlog.QXLogBidOrder

	require.NoError(t, mapper.Dispatch(context.Background(), executed))
	assert.Len(t, store.trades, 1)
}

func TestDispatchSkipsRecordWithoutAssetIdentity(t *testing.T) {
	mapper, store, notifier := newMapperUnderTest()

	record := eventlog.CombinedLog{Tick: 1, TxHash: "tx-empty", LogType: eventlog.QXLogTrade}

	require.NoError(t, mapper.Dispatch(context.Background(), record))
	assert.Empty(t, store.trades)
	assert.Empty(t, notifier.notifications)
}

func TestDispatchPropagatesStoreErrors(t *testing.T) {
	mapper, store, _ := newMapperUnderTest()
	store.tradeErr = errors.New("db down")

	err := mapper.Dispatch(context.Background(), tradeRecord())
	require.ErrorContains(t, err, "db down")
}

func TestDispatchNotificationFailureIsNotFatal(t *testing.T) {
	mapper, store, notifier := newMapperUnderTest()
	notifier.err = errors.New("socket closed")

	require.NoError(t, mapper.Dispatch(context.Background(), tradeRecord()))
	assert.Len(t, store.trades, 1)
}
