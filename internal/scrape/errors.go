package scrape

import "errors"

// Failure taxonomy for source scraping. Every error surfaced by a strategy,
// the fetch client, or the registry wraps one of these sentinels so callers
// can classify with errors.Is.
var (
	// ErrConnection marks a failed session establishment.
	ErrConnection = errors.New("connection failed")

	// ErrAuthentication marks a rejected session or missing token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrParse marks a source response whose shape was unexpected.
	ErrParse = errors.New("parse failed")

	// ErrSource marks a transport failure, possibly after retries.
	ErrSource = errors.New("source request failed")

	// ErrNotRegistered is returned by Registry.Lookup for unknown source ids.
	ErrNotRegistered = errors.New("scraper not registered")

	// ErrUnavailable is returned by Registry.Lookup when a source exists but
	// its status is not active.
	ErrUnavailable = errors.New("scraper unavailable")

	// ErrRegistration marks a registration-time validation failure.
	ErrRegistration = errors.New("scraper registration failed")
)
