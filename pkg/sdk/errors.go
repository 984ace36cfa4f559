package lostfound

import "github.com/civic-cloud/lostfound/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrItemNotFound          = domain.ErrItemNotFound
	ErrValidation            = domain.ErrValidation
	ErrNoKeywords            = domain.ErrNoKeywords
	ErrOracleUnavailable     = domain.ErrOracleUnavailable
	ErrOracleBadResponse     = domain.ErrOracleBadResponse
	ErrImageStoreUnavailable = domain.ErrImageStoreUnavailable
)
