package submission

import "errors"

// Sentinel errors for the submission engine. All three are fatal
// preconditions: they abort before any message is sent.
var (
	// ErrAlreadySent rejects resubmission of a completed campaign.
	ErrAlreadySent = errors.New("campaign already sent")

	// ErrAlreadyClaimed means another run holds the sending claim; the
	// caller should skip the campaign, not treat it as a failure.
	ErrAlreadyClaimed = errors.New("campaign is already being sent")

	// ErrPublishDateInFuture signals a caller bug: delayed campaigns are
	// filtered by the queue, never passed to Submit early.
	ErrPublishDateInFuture = errors.New("campaign publish date is in the future")
)
