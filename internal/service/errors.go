package service

import "errors"

var (
	ErrNotFound         = errors.New("error not found")
	ErrAlreadyExists    = errors.New("error ticker already on watchlist")
	ErrInvalidTicker    = errors.New("error invalid ticker")
	ErrInvalidField     = errors.New("error invalid field value")
	ErrInvalidQuery     = errors.New("error invalid filter or sort")
	ErrQuoteUnavailable = errors.New("error quote unavailable")
	ErrStoreUnavailable = errors.New("error store unavailable")
)
