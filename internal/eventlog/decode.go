// Package eventlog decodes the fixed-layout little-endian event payloads the
// Qubic archiver emits for the QX contract. There is no self-describing
// framing; every decoder is a structural read at fixed byte offsets and any
// change to the contract's log layout requires updating them.
package eventlog

import (
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"

	"github.com/qubic-markets/qx-indexer/internal/identity"
)

const (
	logHeaderLen = 8

	// Contract message body: 8-byte header, 32-byte issuer, packed name,
	// price, amount.
	tradeLogLen = logHeaderLen + identity.PubKeyLen + 8 + 8 + 8

	// Ownership/possession change: from, to, issuer identities, amount,
	// packed name.
	transferLogLen = 3*identity.PubKeyLen + 8 + 8
)

// ErrMalformedPayload marks payloads shorter than the log header.
var ErrMalformedPayload = errors.New("malformed event payload")

// LogHeader routes a contract message to its contract and log type.
type LogHeader struct {
	ContractIndex uint32
	LogType       uint32
}

// TradeLog is the decoded body of a QX contract message.
type TradeLog struct {
	Issuer    string
	AssetName string
	Price     uint64
	Amount    uint64
}

// TransferLog is the decoded body of an asset ownership or possession change
// that co-occurs with a QX contract message in the same transaction.
type TransferLog struct {
	From      string
	To        string
	Issuer    string
	AssetName string
	Amount    uint64
}

// CombinedLog merges the contract message with the transaction's transfer
// event, when present. Transfer fields take precedence over trade-log fields
// on overlap.
type CombinedLog struct {
	Tick     uint64
	TxHash   string
	EventID  uint64
	LogType  uint32
	Trade    *TradeLog
	Transfer *TransferLog
}

// AssetKey returns the (name, issuer) pair identifying the asset, preferring
// the transfer log's fields.
func (c *CombinedLog) AssetKey() (name, issuer string) {
	if c.Transfer != nil {
		return c.Transfer.AssetName, c.Transfer.Issuer
	}
	if c.Trade != nil {
		return c.Trade.AssetName, c.Trade.Issuer
	}
	return "", ""
}

// DecodeLogHeader reads the two little-endian uint32 routing fields at the
// start of a contract message payload.
func DecodeLogHeader(payload []byte) (LogHeader, error) {
	if len(payload) < logHeaderLen {
		return LogHeader{}, errors.Wrapf(ErrMalformedPayload, "log header needs %d bytes, got %d", logHeaderLen, len(payload))
	}

	return LogHeader{
		ContractIndex: binary.LittleEndian.Uint32(payload[0:4]),
		LogType:       binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// DecodeTradeLog reads the trade body that follows the log header. A payload
// too short for the full shape yields nil, meaning "not this log type".
func DecodeTradeLog(payload []byte) *TradeLog {
	if len(payload) < tradeLogLen {
		return nil
	}

	off := logHeaderLen
	issuer, err := identity.FromPubKey(payload[off : off+identity.PubKeyLen])
	if err != nil {
		return nil
	}
	off += identity.PubKeyLen

	packedName := binary.LittleEndian.Uint64(payload[off:])
	price := binary.LittleEndian.Uint64(payload[off+8:])
	amount := binary.LittleEndian.Uint64(payload[off+16:])

	return &TradeLog{
		Issuer:    issuer,
		AssetName: UnpackAssetName(packedName),
		Price:     price,
		Amount:    amount,
	}
}

// DecodeTransferLog reads an ownership/possession change body. The layout is
// positionally fixed; a short payload yields nil.
func DecodeTransferLog(payload []byte) *TransferLog {
	if len(payload) < transferLogLen {
		return nil
	}

	from, err := identity.FromPubKey(payload[0:identity.PubKeyLen])
	if err != nil {
		return nil
	}
	to, err := identity.FromPubKey(payload[identity.PubKeyLen : 2*identity.PubKeyLen])
	if err != nil {
		return nil
	}
	issuer, err := identity.FromPubKey(payload[2*identity.PubKeyLen : 3*identity.PubKeyLen])
	if err != nil {
		return nil
	}

	off := 3 * identity.PubKeyLen
	amount := binary.LittleEndian.Uint64(payload[off:])
	packedName := binary.LittleEndian.Uint64(payload[off+8:])

	return &TransferLog{
		From:      from,
		To:        to,
		Issuer:    issuer,
		AssetName: UnpackAssetName(packedName),
		Amount:    amount,
	}
}

// DecodeTickEvents extracts every combined QX log record from one tick. For
// each transaction, every contract message addressed to contractIndex
// produces one record; the transaction's event list is also scanned for an
// ownership/possession change, which is merged in when present. Transactions
// without QX activity contribute nothing.
func DecodeTickEvents(te *TickEvents, contractIndex uint32) []CombinedLog {
	var records []CombinedLog

	for i := range te.TxEvents {
		tx := &te.TxEvents[i]

		var transfer *TransferLog
		for j := range tx.Events {
			if isTransferEvent(tx.Events[j].EventType) {
				transfer = DecodeTransferLog(tx.Events[j].EventData)
				if transfer != nil {
					break
				}
			}
		}

		for j := range tx.Events {
			event := &tx.Events[j]
			if !IsContractMessage(event.EventType) {
				continue
			}

			header, err := DecodeLogHeader(event.EventData)
			if err != nil {
				continue
			}
			if header.ContractIndex != contractIndex {
				continue
			}

			trade := DecodeTradeLog(event.EventData)
			if trade == nil && transfer == nil {
				continue
			}

			records = append(records, CombinedLog{
				Tick:     te.Tick,
				TxHash:   tx.TxID,
				EventID:  parseEventID(event.Header.EventID),
				LogType:  header.LogType,
				Trade:    trade,
				Transfer: transfer,
			})
		}
	}

	return records
}

func parseEventID(id string) uint64 {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
