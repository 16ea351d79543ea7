package errs

import (
	"errors"
)

var (
	// ErrNoVideoReference indicates that the link matches none of the known watch, short-host or shorts shapes.
	ErrNoVideoReference = errors.New("no video reference found")
	// ErrCatalogNotFound indicates that the page carries no adaptive formats catalog.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrMalformedCatalog indicates that the catalog brackets do not balance or its JSON is invalid.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrNoPlayableFormat indicates that no video format is left after filtering.
	ErrNoPlayableFormat = errors.New("no playable format")
	// ErrMissingSignatureAndURL indicates a format that has neither a direct URL nor a signature token.
	ErrMissingSignatureAndURL = errors.New("signature cipher and url both missing")
	// ErrEntryPointNotFound indicates that the decipher entry point could not be located in the player script.
	ErrEntryPointNotFound = errors.New("entry point not found")
	// ErrPartialCoverage indicates that some sub-operations of the entry point could not be classified.
	ErrPartialCoverage = errors.New("partial cipher coverage")
	// ErrNetworkFailure indicates a transport level failure while fetching or probing.
	ErrNetworkFailure = errors.New("network failure")
	// ErrAttemptsExhausted indicates that every resolve attempt produced an unreachable URL.
	ErrAttemptsExhausted = errors.New("resolve attempts exhausted")
	// ErrURLNotFound indicates that the page does not contain a source URL for the video.
	ErrURLNotFound = errors.New("source url not found")
	// ErrUnsupportedService indicates a link whose host is served by no known service.
	ErrUnsupportedService = errors.New("unsupported service")
)
