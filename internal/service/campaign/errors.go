package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound         = errors.New("campaign not found")
	ErrSlugTaken        = errors.New("campaign slug already in use")
	ErrDuplicatePublish = errors.New("newsletter already has a published campaign")
	ErrAlreadySubmitted = errors.New("campaign has already been submitted")
	ErrAlreadySent      = errors.New("campaign has already been sent")
	ErrLocked           = errors.New("campaign is being sent and cannot be modified")
)
