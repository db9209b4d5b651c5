// Package dedup suppresses retransmitted Insteon group messages.
//
// An all-link (group) transaction from one controller is a broadcast, a
// cleanup sent to each linked responder, and a success report. The mesh
// repeats each of these, and any of them may be lost. GroupStateMachine
// tracks one (source, group) pair and flags every message after the first
// of a transaction as a duplicate. Filter owns the machines for every source
// on a connection and also debounces plain broadcasts.
//
//	filter := dedup.NewFilter()
//	for msg := range messages {
//	    if filter.IsDuplicate(msg) {
//	        continue
//	    }
//	    publish(msg)
//	}
package dedup
