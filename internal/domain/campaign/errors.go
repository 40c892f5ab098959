package campaign

import "errors"

var (
	ErrNotFound        = errors.New("campaign not found")
	ErrCreatorNotFound = errors.New("creator not found")
)
