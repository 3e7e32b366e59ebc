package services

import "errors"

var (
	ErrParsingFailed       = errors.New("parsing failed")
	ErrProcessingFailed    = errors.New("processing failed")
	ErrTransactionNotFound = errors.New("transaction not found")
)
