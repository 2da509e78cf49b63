package domain

import "errors"

var (
	ErrNotFound         = errors.New("job not found")
	ErrValidation       = errors.New("invalid parameters")
	ErrStoreUnavailable = errors.New("job store unavailable")
	ErrQueueEmpty       = errors.New("queue empty")
	ErrInterpretation   = errors.New("interpretation failed")
	ErrRender           = errors.New("render failed")
	ErrPublication      = errors.New("artifact publication failed")
)
