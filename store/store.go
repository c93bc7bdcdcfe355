// Package store implements the message archive: a keyed record of every
// sent and received message, used to answer resend requests and (for the
// durable implementation) to survive a restart.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/jcass77/WTFIX-sub000/message"
)

// Store is the contract both the in-memory and durable implementations
// satisfy. Keys are (sessionID, originator, seqNum) triples: originator is
// the sender's CompID for outbound messages and the target's CompID for
// inbound ones, so a session's sent and received logs never collide.
type Store interface {
	Initialize(ctx context.Context) error
	Finalize(ctx context.Context) error

	Set(ctx context.Context, sessionID, originator string, msg *message.Message) error
	Get(ctx context.Context, sessionID, originator string, seqNum int) (*message.Message, bool, error)
	Delete(ctx context.Context, sessionID, originator string, seqNum int) (int, error)
	Filter(ctx context.Context, sessionID, originator string) ([]int, error)
}

// Key formats the canonical "session:originator:seqNum" identifier used by
// both store implementations.
func Key(sessionID, originator string, seqNum int) string {
	return fmt.Sprintf("%s:%s:%d", sessionID, originator, seqNum)
}

func sortedInts(xs []int) []int {
	sort.Ints(xs)
	return xs
}
