package eventlog

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubic-markets/qx-indexer/internal/identity"
)

const qxContractIndex = 12

func tradePayload(t *testing.T, contractIndex, logType uint32, issuer []byte, name string, price, amount uint64) []byte {
	t.Helper()

	packed, err := PackAssetName(name)
	require.NoError(t, err)

	payload := make([]byte, tradeLogLen)
	binary.LittleEndian.PutUint32(payload[0:], contractIndex)
	binary.LittleEndian.PutUint32(payload[4:], logType)
	copy(payload[8:], issuer)
	binary.LittleEndian.PutUint64(payload[40:], packed)
	binary.LittleEndian.PutUint64(payload[48:], price)
	binary.LittleEndian.PutUint64(payload[56:], amount)

	return payload
}

func transferPayload(t *testing.T, from, to, issuer []byte, amount uint64, name string) []byte {
	t.Helper()

	packed, err := PackAssetName(name)
	require.NoError(t, err)

	payload := make([]byte, transferLogLen)
	copy(payload[0:], from)
	copy(payload[32:], to)
	copy(payload[64:], issuer)
	binary.LittleEndian.PutUint64(payload[96:], amount)
	binary.LittleEndian.PutUint64(payload[104:], packed)

	return payload
}

func pubKey(fill byte) []byte {
	key := make([]byte, identity.PubKeyLen)
	for i := range key {
		key[i] = fill
	}
	return key
}

func mustAddress(t *testing.T, key []byte) string {
	t.Helper()

	addr, err := identity.FromPubKey(key)
	require.NoError(t, err)

	return addr
}

func TestDecodeLogHeader(t *testing.T) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:], qxContractIndex)
	binary.LittleEndian.PutUint32(payload[4:], QXLogTrade)

	header, err := DecodeLogHeader(payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(qxContractIndex), header.ContractIndex)
	assert.Equal(t, QXLogTrade, header.LogType)
}

func TestDecodeLogHeaderTooShort(t *testing.T) {
	for _, length := range []int{0, 1, 4, 7} {
		_, err := DecodeLogHeader(make([]byte, length))
		require.Error(t, err, "length %d", length)
		require.ErrorIs(t, err, ErrMalformedPayload)
	}
}

func TestDecodeTradeLogShortPayloadsReturnNil(t *testing.T) {
	for length := 0; length < tradeLogLen; length++ {
		require.Nil(t, DecodeTradeLog(make([]byte, length)), "length %d", length)
	}
}

func TestDecodeTradeLog(t *testing.T) {
	issuer := pubKey(0xAB)
	payload := tradePayload(t, qxContractIndex, QXLogTrade, issuer, "QX", 1000, 5)

	trade := DecodeTradeLog(payload)
	require.NotNil(t, trade)
	assert.Equal(t, mustAddress(t, issuer), trade.Issuer)
	assert.Equal(t, "QX", trade.AssetName)
	assert.Equal(t, uint64(1000), trade.Price)
	assert.Equal(t, uint64(5), trade.Amount)
}

func TestDecodeTransferLogShortPayloadsReturnNil(t *testing.T) {
	for _, length := range []int{0, 31, 64, 96, transferLogLen - 1} {
		require.Nil(t, DecodeTransferLog(make([]byte, length)), "length %d", length)
	}
}

func TestDecodeTransferLog(t *testing.T) {
	from := pubKey(0x01)
	to := pubKey(0x02)
	issuer := pubKey(0x03)
	payload := transferPayload(t, from, to, issuer, 42, "QTRY")

	transfer := DecodeTransferLog(payload)
	require.NotNil(t, transfer)
	assert.Equal(t, mustAddress(t, from), transfer.From)
	assert.Equal(t, mustAddress(t, to), transfer.To)
	assert.Equal(t, mustAddress(t, issuer), transfer.Issuer)
	assert.Equal(t, uint64(42), transfer.Amount)
	assert.Equal(t, "QTRY", transfer.AssetName)
}

func TestIsContractMessage(t *testing.T) {
	for _, eventType := range []uint32{
		EventContractErrorMessage,
		EventContractWarningMessage,
		EventContractInformationMessage,
		EventContractDebugMessage,
	} {
		assert.True(t, IsContractMessage(eventType), "event type %d", eventType)
	}

	for _, eventType := range []uint32{
		EventQuTransfer,
		EventAssetIssuance,
		EventAssetOwnershipChange,
		EventAssetPossessionChange,
		EventBurning,
		EventSpectrumStats,
		EventCustomMessage,
	} {
		assert.False(t, IsContractMessage(eventType), "event type %d", eventType)
	}
}

func TestDecodeTickEventsMergesTransfer(t *testing.T) {
	issuer := pubKey(0xAB)
	from := pubKey(0x01)
	to := pubKey(0x02)

	te := &TickEvents{
		Tick: 3,
		TxEvents: []TxEvents{{
			TxID: "tx-1",
			Events: []Event{
				{
					Header:    EventHeader{EventID: "17"},
					EventType: EventAssetPossessionChange,
					EventData: transferPayload(t, from, to, issuer, 5, "QX"),
				},
				{
					Header:    EventHeader{EventID: "18"},
					EventType: EventContractInformationMessage,
					EventData: tradePayload(t, qxContractIndex, QXLogTrade, issuer, "QX", 1000, 5),
				},
			},
		}},
	}

	records := DecodeTickEvents(te, qxContractIndex)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, uint64(3), record.Tick)
	assert.Equal(t, "tx-1", record.TxHash)
	assert.Equal(t, uint64(18), record.EventID)
	assert.Equal(t, QXLogTrade, record.LogType)

	require.NotNil(t, record.Trade)
	assert.Equal(t, uint64(1000), record.Trade.Price)

	require.NotNil(t, record.Transfer)
	assert.Equal(t, mustAddress(t, from), record.Transfer.From)
	assert.Equal(t, mustAddress(t, to), record.Transfer.To)

	name, assetIssuer := record.AssetKey()
	assert.Equal(t, "QX", name)
	assert.Equal(t, mustAddress(t, issuer), assetIssuer)
}

func TestDecodeTickEventsWithoutTransfer(t *testing.T) {
	te := &TickEvents{
		Tick: 7,
		TxEvents: []TxEvents{{
			TxID: "tx-2",
			Events: []Event{{
				Header:    EventHeader{EventID: "1"},
				EventType: EventContractInformationMessage,
				EventData: tradePayload(t, qxContractIndex, QXLogIssuance, pubKey(0x05), "MLM", 0, 0),
			}},
		}},
	}

	records := DecodeTickEvents(te, qxContractIndex)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Transfer)
	require.NotNil(t, records[0].Trade)
	assert.Equal(t, "MLM", records[0].Trade.AssetName)
}

func TestDecodeTickEventsFiltersOtherContracts(t *testing.T) {
	te := &TickEvents{
		Tick: 9,
		TxEvents: []TxEvents{{
			TxID: "tx-3",
			Events: []Event{{
				EventType: EventContractInformationMessage,
				EventData: tradePayload(t, 7, QXLogTrade, pubKey(0x05), "FOO", 1, 1),
			}},
		}},
	}

	assert.Empty(t, DecodeTickEvents(te, qxContractIndex))
}

func TestDecodeTickEventsSkipsNonContractEvents(t *testing.T) {
	te := &TickEvents{
		Tick: 9,
		TxEvents: []TxEvents{{
			TxID: "tx-4",
			Events: []Event{
				{EventType: EventQuTransfer, EventData: make([]byte, 72)},
				{EventType: EventBurning, EventData: make([]byte, 40)},
				{EventType: EventContractDebugMessage, EventData: []byte{1, 2}}, // malformed header
			},
		}},
	}

	assert.Empty(t, DecodeTickEvents(te, qxContractIndex))
}

func TestDecodeTickEventsMultipleRecordsPerTransaction(t *testing.T) {
	te := &TickEvents{
		Tick: 11,
		TxEvents: []TxEvents{{
			TxID: "tx-5",
			Events: []Event{
				{
					EventType: EventContractInformationMessage,
					EventData: tradePayload(t, qxContractIndex, QXLogTrade, pubKey(0x01), "QX", 10, 1),
				},
				{
					EventType: EventContractInformationMessage,
					EventData: tradePayload(t, qxContractIndex, QXLogTrade, pubKey(0x01), "QX", 20, 2),
				},
			},
		}},
	}

	records := DecodeTickEvents(te, qxContractIndex)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(10), records[0].Trade.Price)
	assert.Equal(t, uint64(20), records[1].Trade.Price)
}
