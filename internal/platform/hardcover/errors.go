package hardcover

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredential means no API token was configured. No request is sent.
	ErrMissingCredential = errors.New("hardcover: no API key configured; set HARDCOVER_API_KEY or hardcover.api_key")

	// ErrAuthentication covers 401/403 responses and locally expired tokens.
	ErrAuthentication = errors.New("hardcover: authentication failed; the API key appears to be invalid or expired")

	// ErrRateLimitExhausted is returned after the 429 retry budget is spent.
	ErrRateLimitExhausted = errors.New("hardcover: rate limit exceeded after retries")

	// ErrConnectivity wraps transport failures.
	ErrConnectivity = errors.New("hardcover: unable to connect to the API")

	// ErrNoUser means the identity query returned no user.
	ErrNoUser = errors.New("hardcover: no user id in response")
)

// StatusError is a non-2xx response other than 401, 403 and 429.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hardcover: request failed with status %d: %s", e.Code, e.Body)
}

// GraphQLError carries the messages of a non-empty errors array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "hardcover: graphql error: " + strings.Join(e.Messages, "; ")
}
