package service

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("campaign is not in a dispatchable state")
	ErrNoRecipients        = errors.New("campaign has no valid recipients")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrCreditMismatch      = errors.New("stored message credits differ from the estimate")
	ErrMalformedWebhook    = errors.New("delivery report is missing subid or desc")
	ErrUnknownExternalID   = errors.New("unknown external message id")
	ErrTransientCarrier    = errors.New("carrier temporarily unavailable")
	ErrCarrierRejected     = errors.New("carrier rejected the message")
)
