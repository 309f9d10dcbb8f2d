package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ReferencePrefix starts every generated journal reference number.
const ReferencePrefix = "JRN-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh row ID.
func New() string {
	return uuid.NewString()
}

// NewReference returns a journal reference number like "JRN-01HZX3K6W4M0Q6T9YB3V4N2R8E".
// References generated in the same process sort in creation order.
func NewReference(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ReferencePrefix + ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
