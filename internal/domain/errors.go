package domain

import "errors"

// Pipeline error taxonomy. Intent and composition backend failures are
// absorbed inside their components and never reach these.
var (
	// ErrConversationNotFound is returned when a supplied conversation id
	// does not exist or belongs to another user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrCatalogUnavailable wraps database failures during product
	// resolution. The orchestrator never synthesizes results around it.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrPersistence wraps message write failures that survived the single
	// retry.
	ErrPersistence = errors.New("message persistence failed")

	// ErrUserNotFound is returned for lookups of unknown users.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound is returned for lookups of unknown products.
	ErrProductNotFound = errors.New("product not found")
)
