package model

import (
	"regexp"
	"strings"
	"time"

	"telegram-tiktok-checker/internal/domain"

	"github.com/oklog/ulid/v2"
)

// UsernameStatus is the verdict of an availability check.
type UsernameStatus string

const (
	StatusAvailable   UsernameStatus = "available"
	StatusTaken       UsernameStatus = "taken"
	StatusUnavailable UsernameStatus = "unavailable" // banned or otherwise blocked handle
	StatusError       UsernameStatus = "error"
)

func (s UsernameStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusTaken, StatusUnavailable, StatusError:
		return true
	}
	return false
}

// CheckSource tells which probe produced the verdict.
type CheckSource string

const (
	SourceAPI   CheckSource = "api"
	SourceHTML  CheckSource = "html"
	SourceCache CheckSource = "cache"
	SourceNone  CheckSource = "none" // verdict formed without an outbound call
)

// Reason codes recorded in CheckResult.Detail. The bot layer maps them to
// localized text; the admin API returns them verbatim.
const (
	ReasonAPITaken        = "api_taken"
	ReasonAPIAvailable    = "api_available"
	ReasonAPIBanned       = "api_banned"
	ReasonProfileNotFound = "profile_not_found"
	ReasonNotFoundMarker  = "not_found_marker"
	ReasonUniqueIDMatch   = "unique_id_match"
	ReasonProfileData     = "profile_data"
	ReasonBannedMarker    = "banned_marker"
	ReasonNotFoundText    = "not_found_text"
	ReasonAssumedTaken    = "assumed_taken"
	ReasonForbidden       = "forbidden"
	ReasonServerError     = "server_error"
	ReasonAmbiguous       = "ambiguous_status"
	ReasonInvalidFormat   = "invalid_format"
	ReasonProbeFailed     = "probe_failed"
	ReasonBreakerOpen     = "breaker_open"
)

// TikTok allows latin letters, digits, underscores and periods, 2 to 24 chars.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]{2,24}$`)

// CanonicalUsername strips surrounding whitespace and leading @ signs and
// lowercases the name. TikTok handles are case-insensitive.
func CanonicalUsername(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimLeft(name, "@")
	name = strings.TrimSpace(name)
	return strings.ToLower(name)
}

// ValidateUsername reports whether name is a well-formed TikTok handle.
// Callers are expected to canonicalize first.
func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return domain.ErrInvalidUsername
	}
	return nil
}

// CheckResult is the outcome of a single availability probe.
type CheckResult struct {
	Username   string
	Status     UsernameStatus
	Detail     string
	Source     CheckSource
	HTTPStatus int
	Latency    time.Duration
	CheckedAt  time.Time
}

// CheckRecord is a persisted check with a time-sortable id.
type CheckRecord struct {
	ID          string
	RequestedBy int64 // telegram id of the requester, 0 for API-initiated checks
	CheckResult
}

func NewCheckRecord(id string, requestedBy int64, res *CheckResult) (*CheckRecord, error) {
	if res == nil || res.Username == "" || !res.Status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = ulid.Make().String()
	}
	rec := &CheckRecord{
		ID:          id,
		RequestedBy: requestedBy,
		CheckResult: *res,
	}
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now()
	}
	return rec, nil
}
