package analytics

import "errors"

// ErrMissingSessionID is returned when an event or consent record arrives
// without the one field this layer validates.
var ErrMissingSessionID = errors.New("session id is required")

// ErrSubjectNotFound is returned by Export when no session, page view,
// event, or consent row exists for the requested session id.
var ErrSubjectNotFound = errors.New("no data found for session")
