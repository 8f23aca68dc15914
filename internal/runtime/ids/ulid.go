package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageID returns a time-sortable ULID used as the UUID of outgoing bus
// messages and as a fallback correlation id.
func NewMessageID() string {
	return newAt(time.Now())
}

func newAt(ts time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(ts), entropy).String()
}

// Timestamp extracts the creation time encoded in a message id. It reports
// false for ids that are not ULIDs, such as UUIDs minted by other producers.
func Timestamp(id string) (time.Time, bool) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}
