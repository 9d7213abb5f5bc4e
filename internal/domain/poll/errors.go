package poll

import "errors"

var (
	// ErrInvalidInput indicates a poll is missing required fields.
	ErrInvalidInput = errors.New("invalid poll input")
	// ErrInvalidURL indicates a media link could not be parsed.
	ErrInvalidURL = errors.New("invalid media url")
	// ErrInvalidRating indicates a rating outside the 0-10 integer range.
	ErrInvalidRating = errors.New("rating must be an integer between 0 and 10")
	// ErrVotingClosed indicates the poll timer has run out.
	ErrVotingClosed = errors.New("voting closed")
)
