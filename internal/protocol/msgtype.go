package protocol

import "fmt"

// MsgType classifies a message from the top three bits of its flags byte
type MsgType int

const (
	MsgTypeInvalid MsgType = iota
	MsgTypeBroadcast
	MsgTypeDirect
	MsgTypeAckOfDirect
	MsgTypeNackOfDirect
	MsgTypeAllLinkBroadcast
	MsgTypeAllLinkCleanup
	MsgTypeAllLinkCleanupAck
	MsgTypeAllLinkCleanupNack
)

// Message flag bits
const (
	FlagMaxHops   = 0x03
	FlagHopsLeft  = 0x0C
	FlagExtended  = 0x10
	FlagAck       = 0x20
	FlagAllLink   = 0x40
	FlagBroadcast = 0x80
	flagTypeMask  = 0xE0
	flagTypeShift = 5
	hopsLeftShift = 2
)

// msgTypeTable maps flags>>5 to a message type
var msgTypeTable = [8]MsgType{
	0x0: MsgTypeDirect,
	0x1: MsgTypeAckOfDirect,
	0x2: MsgTypeAllLinkCleanup,
	0x3: MsgTypeAllLinkCleanupAck,
	0x4: MsgTypeBroadcast,
	0x5: MsgTypeNackOfDirect,
	0x6: MsgTypeAllLinkBroadcast,
	0x7: MsgTypeAllLinkCleanupNack,
}

// MsgTypeFromFlags classifies a flags byte. It never fails.
func MsgTypeFromFlags(flags byte) MsgType {
	idx := int(flags&flagTypeMask) >> flagTypeShift
	if idx < 0 || idx >= len(msgTypeTable) {
		return MsgTypeInvalid
	}
	return msgTypeTable[idx]
}

// String returns a human-readable message type name
func (t MsgType) String() string {
	switch t {
	case MsgTypeBroadcast:
		return "Broadcast"
	case MsgTypeDirect:
		return "Direct"
	case MsgTypeAckOfDirect:
		return "AckOfDirect"
	case MsgTypeNackOfDirect:
		return "NackOfDirect"
	case MsgTypeAllLinkBroadcast:
		return "AllLinkBroadcast"
	case MsgTypeAllLinkCleanup:
		return "AllLinkCleanup"
	case MsgTypeAllLinkCleanupAck:
		return "AllLinkCleanupAck"
	case MsgTypeAllLinkCleanupNack:
		return "AllLinkCleanupNack"
	case MsgTypeInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("MsgType(%d)", int(t))
	}
}

// Priority orders outbound messages; higher values are sent first
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}
