package cost

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// entropy backs ULID generation for CostSessionId and ApiCallId. ULIDs are
// used rather than UUIDv4 because spec.md §3 requires ids to be "totally
// ordered for tie-breaking" — a ULID's leading timestamp component sorts
// lexically with creation order, which a random UUID cannot offer.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// CostSessionId uniquely identifies a CostSession.
type CostSessionId string

// NewCostSessionId generates a fresh, time-ordered session id.
func NewCostSessionId() CostSessionId {
	return CostSessionId(newID())
}

// ApiCallId uniquely identifies an ApiCall within a session.
type ApiCallId string

// NewApiCallId generates a fresh, time-ordered call id.
func NewApiCallId() ApiCallId {
	return ApiCallId(newID())
}

// IssueId identifies the issue or unit of work a cost session is billed
// against. It is a 1-255 character, non-whitespace-only string (spec.md §3).
type IssueId string

// NewIssueId validates and constructs an IssueId.
func NewIssueId(raw string) (IssueId, error) {
	if len(raw) == 0 {
		return "", &InvalidInput{Field: "issue_id", Message: "must not be empty"}
	}
	if n := utf8.RuneCountInString(raw); n > 255 {
		return "", &InvalidInput{Field: "issue_id", Message: fmt.Sprintf("must be at most 255 characters, got %d", n)}
	}
	if strings.TrimSpace(raw) == "" {
		return "", &InvalidInput{Field: "issue_id", Message: "must not be whitespace-only"}
	}
	return IssueId(raw), nil
}

func (id IssueId) String() string { return string(id) }
