package workitems

import "errors"

// ErrNotFound indicates the work item does not exist for the given user.
var ErrNotFound = errors.New("work item not found")

// ErrInvalidInput indicates missing or malformed caller input.
var ErrInvalidInput = errors.New("invalid input")
