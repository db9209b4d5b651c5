package dedup

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/logging"
	"github.com/muurk/insteon/internal/protocol"
)

// BroadcastWindow suppresses repeats of a plain (non all-link) broadcast
// such as a SET button press announcement
const BroadcastWindow = 2 * time.Second

type groupKey struct {
	addr  protocol.Address
	group int
}

type broadcastKey struct {
	addr protocol.Address
	cmd1 byte
}

// Filter tracks every source on a connection and flags retransmitted
// messages. It is safe for concurrent use.
type Filter struct {
	mu         sync.Mutex
	groups     map[groupKey]*GroupStateMachine
	broadcasts map[broadcastKey]time.Time
}

// NewFilter creates an empty filter
func NewFilter() *Filter {
	return &Filter{
		groups:     make(map[groupKey]*GroupStateMachine),
		broadcasts: make(map[broadcastKey]time.Time),
	}
}

// IsDuplicate reports whether msg is a retransmission.
//
// All-link broadcasts, cleanups and success reports go through the state
// machine of their (source, group). Plain broadcasts are duplicates when the
// same source repeats cmd1 within BroadcastWindow. Everything else, including
// messages without a source address, is never a duplicate.
func (f *Filter) IsDuplicate(msg *protocol.Message) bool {
	from, err := msg.Address(protocol.FieldFromAddress)
	if err != nil {
		return false
	}

	switch {
	case msg.IsAllLinkBroadcast(), msg.IsAllLinkCleanup():
		return f.groupDuplicate(from, msg)
	case msg.IsBroadcast():
		return f.broadcastDuplicate(from, msg)
	default:
		return false
	}
}

func (f *Filter) groupDuplicate(from protocol.Address, msg *protocol.Message) bool {
	key := groupKey{addr: from, group: msg.Group()}

	f.mu.Lock()
	defer f.mu.Unlock()

	sm, ok := f.groups[key]
	if !ok {
		sm = NewGroupStateMachine()
		f.groups[key] = sm
		logging.Debug("Created group state",
			zap.Stringer("address", from),
			zap.Int("group", key.group),
		)
	}

	dup := sm.IsDuplicate(msg)
	logging.Debug("Group message state",
		zap.Stringer("address", from),
		zap.Int("group", key.group),
		zap.Stringer("type", ClassifyGroupMessage(msg)),
		zap.Stringer("state", sm.State()),
		zap.Bool("duplicate", dup),
	)
	return dup
}

func (f *Filter) broadcastDuplicate(from protocol.Address, msg *protocol.Message) bool {
	cmd1, err := msg.Byte(protocol.FieldCommand1)
	if err != nil {
		return false
	}
	key := broadcastKey{addr: from, cmd1: cmd1}

	f.mu.Lock()
	defer f.mu.Unlock()

	if last, ok := f.broadcasts[key]; ok {
		lapse := msg.Timestamp.Sub(last)
		if lapse > 0 && lapse < BroadcastWindow {
			return true
		}
	}
	f.broadcasts[key] = msg.Timestamp
	return false
}

// GroupState returns the state machine for a source and group, if one exists
func (f *Filter) GroupState(addr protocol.Address, group int) (State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sm, ok := f.groups[groupKey{addr: addr, group: group}]
	if !ok {
		return ExpectBcast, false
	}
	return sm.State(), true
}

// Forget drops all state kept for a source
func (f *Filter) Forget(addr protocol.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k := range f.groups {
		if k.addr == addr {
			delete(f.groups, k)
		}
	}
	for k := range f.broadcasts {
		if k.addr == addr {
			delete(f.broadcasts, k)
		}
	}
}

// Len returns the number of tracked groups
func (f *Filter) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups)
}
