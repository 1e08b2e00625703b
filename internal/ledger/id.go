package ledger

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionIDLayout is fixed width, so lexical order of ids is creation order.
const SessionIDLayout = "20060102_150405.000"

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewTransactionID(now time.Time) string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), ulidEntropy).String()
}

func NewSessionID(now time.Time) string {
	return now.UTC().Format(SessionIDLayout)
}
