package types

import "errors"

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrEmptyPrompt    = errors.New("prompt has no turns to answer")
	ErrInvocation     = errors.New("backend invocation failed")
	ErrPublish        = errors.New("publishing response failed")
	ErrItemProcessing = errors.New("error processing prompt item")
	ErrItemNotFound   = errors.New("prompt item not found")
	ErrInvalidMessage = errors.New("invalid prompt message")
)
