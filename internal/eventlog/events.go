package eventlog

// Event type discriminants emitted by the Qubic archiver.
const (
	EventQuTransfer                            uint32 = 0
	EventAssetIssuance                         uint32 = 1
	EventAssetOwnershipChange                  uint32 = 2
	EventAssetPossessionChange                 uint32 = 3
	EventContractErrorMessage                  uint32 = 4
	EventContractWarningMessage                uint32 = 5
	EventContractInformationMessage            uint32 = 6
	EventContractDebugMessage                  uint32 = 7
	EventBurning                               uint32 = 8
	EventDustBurning                           uint32 = 9
	EventSpectrumStats                         uint32 = 10
	EventAssetOwnershipManagingContractChange  uint32 = 11
	EventAssetPossessionManagingContractChange uint32 = 12
	EventCustomMessage                         uint32 = 255
)

// QX contract log types carried in the log header.
const (
	QXLogIssuance uint32 = 0
	QXLogAskOrder uint32 = 1
	QXLogBidOrder uint32 = 2
	QXLogTrade    uint32 = 3
)

// TickEvents is the archiver response for one tick: every transaction with
// the events it emitted.
type TickEvents struct {
	Tick     uint64     `json:"tick"`
	TxEvents []TxEvents `json:"txEvents"`
}

type TxEvents struct {
	TxID   string  `json:"txId"`
	Events []Event `json:"events"`
}

type EventHeader struct {
	Epoch       uint32 `json:"epoch"`
	Tick        uint64 `json:"tick"`
	EventID     string `json:"eventId"`
	EventDigest string `json:"eventDigest"`
}

// Event is one emitted event. EventData arrives base64-encoded and is
// decoded into raw bytes by encoding/json.
type Event struct {
	Header    EventHeader `json:"header"`
	EventType uint32      `json:"eventType"`
	EventSize uint32      `json:"eventSize"`
	EventData []byte      `json:"eventData"`
}

// IsContractMessage reports whether an event type is one of the four contract
// message categories. Only those events carry a contract log header.
func IsContractMessage(eventType uint32) bool {
	switch eventType {
	case EventContractErrorMessage,
		EventContractWarningMessage,
		EventContractInformationMessage,
		EventContractDebugMessage:
		return true
	default:
		return false
	}
}

func isTransferEvent(eventType uint32) bool {
	return eventType == EventAssetOwnershipChange || eventType == EventAssetPossessionChange
}
