package scrape

import (
	"context"
	"time"

	"studio-availability-backend/internal/model"
)

// Strategy is the capability interface every source connector implements.
// Implementations hold per-source session state (tokens, cookies) and are
// not safe for concurrent use; callers own at most one in-flight call per
// instance.
type Strategy interface {
	// Name identifies the connector implementation for diagnostics.
	Name() string

	// EstablishConnection performs whatever session handshake the source
	// requires. shopID is empty for standalone shops. Failures wrap
	// ErrConnection or ErrAuthentication.
	EstablishConnection(ctx context.Context, shopID string) error

	// FetchAvailableTimes returns the source's rooms for the date, each
	// annotated with its start-minute grid. Slots are raw and unmerged;
	// merging is the matching engine's job. Failures wrap ErrParse or
	// ErrSource.
	FetchAvailableTimes(ctx context.Context, date time.Time) ([]model.RoomAvailability, error)
}

// Status is the lifecycle state of a registered scraper.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusError    Status = "error"
)

// Metadata describes a registered scraper. Status and ErrorMessage are
// mutated only by the Registry.
type Metadata struct {
	Description  string `json:"description"`
	Version      string `json:"version"`
	RequiresAuth bool   `json:"requires_auth"`
	BaseURL      string `json:"base_url"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
