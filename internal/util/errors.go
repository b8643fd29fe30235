package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")

	// ErrCaseNotFound means the case identifier resolves to no case record.
	// Distinct from "no documents yet", which is a normal degraded state.
	ErrCaseNotFound = errors.New("case not found")

	// ErrInvalidInput rejects requests missing required identifiers before any I/O.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGenerationFailed wraps generator backend failures. Retrieval failures
	// are never surfaced this way; they degrade to a context-only answer.
	ErrGenerationFailed = errors.New("generation backend unavailable")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
	ErrContextTooLong = errors.New("context too long")
)
