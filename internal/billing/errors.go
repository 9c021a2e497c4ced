package billing

import "errors"

// Validation errors are detected before any mutation is applied; a document
// is never saved with a partially applied line set.
var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("unit price cannot be negative")
	ErrInvalidTaxRate  = errors.New("tax rate must be between 0 and 100")
	ErrInvalidDates    = errors.New("due date cannot be before issue date")

	ErrDocumentNotFound     = errors.New("document not found")
	ErrLineItemNotFound     = errors.New("line item not found")
	ErrCatalogEntryNotFound = errors.New("catalog entry not found")
	ErrPartyNotFound        = errors.New("client not found")

	ErrDocumentLocked    = errors.New("document can no longer be modified")
	ErrInvalidTransition = errors.New("status transition not allowed")

	// Recoverable by retrying with fresh state.
	ErrConcurrentModification = errors.New("document was modified concurrently")
	ErrNumberConflict         = errors.New("document number already issued")
)
