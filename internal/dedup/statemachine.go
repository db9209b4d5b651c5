package dedup

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/logging"
	"github.com/muurk/insteon/internal/protocol"
)

// StalenessWindow is how far apart two messages with the same cmd1 must be
// to count as separate events
const StalenessWindow = 10 * time.Second

// GroupMessageType is the role of a message within an all-link transaction
type GroupMessageType int

const (
	Bcast GroupMessageType = iota
	Clean
	Success
)

func (t GroupMessageType) String() string {
	switch t {
	case Bcast:
		return "BCAST"
	case Clean:
		return "CLEAN"
	case Success:
		return "SUCCESS"
	default:
		return fmt.Sprintf("GroupMessageType(%d)", int(t))
	}
}

// State is the message the state machine expects next
type State int

const (
	ExpectBcast State = iota
	ExpectClean
	ExpectSuccess
)

func (s State) String() string {
	switch s {
	case ExpectBcast:
		return "EXPECT_BCAST"
	case ExpectClean:
		return "EXPECT_CLEAN"
	case ExpectSuccess:
		return "EXPECT_SUCCESS"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ClassifyGroupMessage returns the transaction role of an all-link message
func ClassifyGroupMessage(msg *protocol.Message) GroupMessageType {
	switch {
	case msg.IsAllLinkSuccessReport():
		return Success
	case msg.IsAllLinkCleanup():
		return Clean
	default:
		return Bcast
	}
}

// GroupStateMachine suppresses the retransmissions of one all-link group.
//
// A group transaction is a broadcast, one cleanup per linked responder and a
// success report. Any of them may be lost or repeated; the machine reports
// the first message of each transaction as new and the rest as duplicates,
// letting a cleanup or success report stand in for a lost broadcast.
//
// Not safe for concurrent use; Filter serializes access.
type GroupStateMachine struct {
	state         State
	lastCmd1      byte
	lastTimestamp time.Time
	duplicate     bool
}

// NewGroupStateMachine returns a machine expecting a broadcast
func NewGroupStateMachine() *GroupStateMachine {
	return &GroupStateMachine{state: ExpectBcast}
}

// State returns the message type expected next
func (sm *GroupStateMachine) State() State {
	return sm.state
}

// IsDuplicate reports whether msg repeats a transaction already seen.
// The machine only advances when the comparison byte or timestamp differs
// from the previous call, so asking twice about one message is stable.
func (sm *GroupStateMachine) IsDuplicate(msg *protocol.Message) bool {
	typ := ClassifyGroupMessage(msg)

	var cmd1 byte
	var err error
	if typ == Success {
		// success reports carry the original cmd1 in the toAddress high byte
		var to protocol.Address
		to, err = msg.Address(protocol.FieldToAddress)
		cmd1 = to.High()
	} else {
		cmd1, err = msg.Byte(protocol.FieldCommand1)
	}
	if err != nil {
		logging.Debug("Cannot classify group message", zap.String("message", msg.Name()), zap.Error(err))
		return false
	}

	if cmd1 != sm.lastCmd1 || !msg.Timestamp.Equal(sm.lastTimestamp) {
		return sm.Advance(typ, cmd1, msg.Timestamp)
	}
	return sm.duplicate
}

// Advance feeds one message into the machine and returns the duplicate verdict
func (sm *GroupStateMachine) Advance(typ GroupMessageType, cmd1 byte, ts time.Time) bool {
	isNew := cmd1 != sm.lastCmd1 || absDuration(ts.Sub(sm.lastTimestamp)) > StalenessWindow

	switch sm.state {
	case ExpectBcast:
		switch typ {
		case Bcast:
			sm.duplicate = false
		case Clean, Success:
			// broadcast was lost; a new event still gets through
			sm.duplicate = !isNew
		}
	case ExpectClean:
		switch typ {
		case Bcast:
			sm.duplicate = !isNew
		case Clean:
			sm.duplicate = true
		case Success:
			// cleanup was lost
			sm.duplicate = !isNew
		}
	case ExpectSuccess:
		switch typ {
		case Bcast:
			sm.duplicate = false
		case Clean:
			sm.duplicate = true
		case Success:
			sm.duplicate = !isNew
		}
	}

	switch typ {
	case Bcast:
		sm.state = ExpectClean
	case Clean:
		sm.state = ExpectSuccess
	case Success:
		sm.state = ExpectBcast
	}

	sm.lastCmd1 = cmd1
	sm.lastTimestamp = ts
	return sm.duplicate
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
