package ingest

import (
	"errors"
	"regexp"

	"hardcoversync/internal/platform/hardcover"
)

var (
	ErrInvalidTargetFolder = errors.New("target folder must be a subfolder of the vault, not its root")
	ErrInvalidCheckpoint   = errors.New("invalid last sync timestamp, expected ISO 8601 (YYYY-MM-DDTHH:mm:ss.sssZ) or empty")
	ErrSyncInProgress      = errors.New("a sync is already running")
)

var checkpointPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(([+-]\d{2}:\d{2})|Z)?$`)

// ValidCheckpoint reports whether ts can be sent as updated_after. Empty
// means a full sync and is valid.
func ValidCheckpoint(ts string) bool {
	return ts == "" || checkpointPattern.MatchString(ts)
}

// UserMessage turns a failed pass into text fit for a person rather than a log.
func UserMessage(err error) string {
	var gqlErr *hardcover.GraphQLError
	var statusErr *hardcover.StatusError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTargetFolder):
		return "Please specify a subfolder for your Hardcover books. Using the vault root is not supported."
	case errors.Is(err, ErrInvalidCheckpoint):
		return "Invalid timestamp format. Please use ISO 8601 format (YYYY-MM-DDTHH:mm:ss.SSSZ) or leave it empty."
	case errors.Is(err, ErrSyncInProgress):
		return "A sync is already running. Try again once it has finished."
	case errors.Is(err, hardcover.ErrMissingCredential):
		return "No Hardcover API key configured. Set HARDCOVER_API_KEY or hardcover.api_key."
	case errors.Is(err, hardcover.ErrAuthentication):
		return "Authentication failed. Your Hardcover API key appears to be invalid or expired."
	case errors.Is(err, hardcover.ErrRateLimitExhausted):
		return "Rate limit reached. Please wait a few minutes and try again."
	case errors.Is(err, hardcover.ErrConnectivity):
		return "Could not connect to Hardcover API. Please check your internet connection and try again."
	case errors.As(err, &gqlErr), errors.As(err, &statusErr):
		return "Hardcover rejected the request. Run with log.level=debug for details."
	}
	return "Sync failed. Run with log.level=debug for details."
}
