package hardcover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"hardcoversync/internal/logging"
	"hardcoversync/internal/metrics"
)

const maxErrorBody = 1024

// Throttler admits one outbound request per call.
type Throttler interface {
	Throttle(ctx context.Context) error
}

type Config struct {
	Endpoint    string
	Token       string
	Timeout     time.Duration
	PageSize    int
	BatchWidth  int
	MaxRetries  int
	BaseBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = "https://api.hardcover.app/v1/graphql"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.BatchWidth <= 0 {
		c.BatchWidth = 3
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 5 * time.Second
	}
	return c
}

// Client talks to the Hardcover GraphQL endpoint. Every request passes
// through the limiter before it is sent.
type Client struct {
	httpClient *http.Client
	cfg        Config
	limiter    Throttler
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

func NewClient(cfg Config, limiter Throttler) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    limiter,
		sleep:      realClock{}.Sleep,
		now:        time.Now,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NormalizeToken trims the credential and strips a pasted "Bearer " prefix.
func NormalizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	if len(t) >= 7 && strings.EqualFold(t[:7], "bearer ") {
		t = strings.TrimSpace(t[7:])
	}
	return t
}

// credential resolves the token and rejects it locally when it is missing or
// is a JWT whose exp claim has passed.
func (c *Client) credential() (string, error) {
	token := NormalizeToken(c.cfg.Token)
	if token == "" {
		return "", ErrMissingCredential
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT; let the server decide.
		return token, nil
	}
	exp, err := claims.GetExpirationTime()
	if err == nil && exp != nil && exp.Before(c.now()) {
		return "", fmt.Errorf("%w (token expired %s)", ErrAuthentication, exp.Format(time.RFC3339))
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, target any) error {
	token, err := c.credential()
	if err != nil {
		return err
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Throttle(ctx); err != nil {
			return err
		}

		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.RecordRemoteRequest("transport", time.Since(start))
			return fmt.Errorf("%w: %v", ErrConnectivity, err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			drain(resp)
			metrics.RecordRemoteRequest("auth", time.Since(start))
			return fmt.Errorf("%w (status %d)", ErrAuthentication, resp.StatusCode)

		case resp.StatusCode == http.StatusTooManyRequests:
			drain(resp)
			metrics.RecordRemoteRequest("rate_limited", time.Since(start))
			if attempt >= c.cfg.MaxRetries {
				return ErrRateLimitExhausted
			}
			backoff := c.cfg.BaseBackoff * time.Duration(1<<uint(attempt+1))
			logging.Warn().
				Int("attempt", attempt+1).
				Int("max_retries", c.cfg.MaxRetries).
				Dur("backoff", backoff).
				Msg("rate limited by hardcover, backing off")
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			msg := readBodyForError(resp)
			metrics.RecordRemoteRequest("http_error", time.Since(start))
			return &StatusError{Code: resp.StatusCode, Body: msg}
		}

		var envelope graphQLResponse
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			metrics.RecordRemoteRequest("transport", time.Since(start))
			return fmt.Errorf("decode response: %w", err)
		}
		if len(envelope.Errors) > 0 {
			metrics.RecordRemoteRequest("graphql_error", time.Since(start))
			msgs := make([]string, len(envelope.Errors))
			for i, e := range envelope.Errors {
				msgs[i] = e.Message
			}
			return &GraphQLError{Messages: msgs}
		}
		metrics.RecordRemoteRequest("ok", time.Since(start))

		if target == nil || len(envelope.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(envelope.Data, target); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
		return nil
	}
}

func readBodyForError(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

// FetchPage returns one page of the user's library.
func (c *Client) FetchPage(ctx context.Context, p PageParams) ([]UserBook, error) {
	vars := map[string]any{
		"userId": p.UserID,
		"offset": p.Offset,
		"limit":  p.Limit,
	}
	if p.UpdatedAfter != "" {
		vars["updatedAfter"] = p.UpdatedAfter
	}
	if len(p.StatusIDs) > 0 {
		vars["statusIds"] = p.StatusIDs
	}

	var data struct {
		UserBooks []UserBook `json:"user_books"`
	}
	if err := c.do(ctx, userBooksQuery(p.UpdatedAfter != "", len(p.StatusIDs) > 0), vars, &data); err != nil {
		return nil, err
	}
	return data.UserBooks, nil
}

// FetchCount returns the total number of library entries of the user.
func (c *Client) FetchCount(ctx context.Context, userID int) (int, error) {
	var data struct {
		Aggregate struct {
			Aggregate struct {
				Count int `json:"count"`
			} `json:"aggregate"`
		} `json:"user_books_aggregate"`
	}
	if err := c.do(ctx, booksCountQuery, map[string]any{"userId": userID}, &data); err != nil {
		return 0, err
	}
	return data.Aggregate.Aggregate.Count, nil
}

// FetchIdentity resolves the id of the authenticated user.
func (c *Client) FetchIdentity(ctx context.Context) (int, error) {
	var data struct {
		Me []struct {
			ID int `json:"id"`
		} `json:"me"`
	}
	if err := c.do(ctx, userIDQuery, nil, &data); err != nil {
		return 0, err
	}
	if len(data.Me) == 0 || data.Me[0].ID == 0 {
		return 0, ErrNoUser
	}
	return data.Me[0].ID, nil
}

// FetchLists returns the user's named lists with their book ids.
func (c *Client) FetchLists(ctx context.Context, userID int) ([]List, error) {
	var data struct {
		User *struct {
			Lists []List `json:"lists"`
		} `json:"users_by_pk"`
	}
	if err := c.do(ctx, userListsQuery, map[string]any{"userId": userID}, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, nil
	}
	return data.User.Lists, nil
}

// FetchSyncInfo resolves identity, the status-filtered book count and,
// when asked, the user's lists in one request.
func (c *Client) FetchSyncInfo(ctx context.Context, includeLists bool, statusIDs []int) (*SyncInfo, error) {
	var data struct {
		Me []struct {
			ID        int `json:"id"`
			Aggregate struct {
				Aggregate struct {
					Count int `json:"count"`
				} `json:"aggregate"`
			} `json:"user_books_aggregate"`
			Lists []List `json:"lists"`
		} `json:"me"`
	}
	if err := c.do(ctx, syncInfoQuery(includeLists, statusIDs), nil, &data); err != nil {
		return nil, err
	}
	if len(data.Me) == 0 || data.Me[0].ID == 0 {
		return nil, ErrNoUser
	}

	me := data.Me[0]
	info := &SyncInfo{
		UserID:     me.ID,
		BooksCount: me.Aggregate.Aggregate.Count,
	}
	if includeLists {
		info.Lists = me.Lists
	}
	return info, nil
}

// LibraryParams drives a whole-library fetch.
type LibraryParams struct {
	UserID       int
	Total        int
	UpdatedAfter string
	StatusIDs    []int
	OnProgress   func(fetched, total int)
}

// FetchLibrary pages through the library, issuing up to BatchWidth pages at a
// time. It stops at the first short page even when Total promised more, and
// never returns more than Total records.
func (c *Client) FetchLibrary(ctx context.Context, p LibraryParams) ([]UserBook, error) {
	if p.Total <= 0 {
		return nil, nil
	}

	size := c.cfg.PageSize
	var all []UserBook
	for offset := 0; offset < p.Total; {
		var limits []int
		for off := offset; off < p.Total && len(limits) < c.cfg.BatchWidth; off += size {
			limits = append(limits, min(size, p.Total-off))
		}

		pages := make([][]UserBook, len(limits))
		g, gctx := errgroup.WithContext(ctx)
		for i, limit := range limits {
			g.Go(func() error {
				books, err := c.FetchPage(gctx, PageParams{
					UserID:       p.UserID,
					Offset:       offset + i*size,
					Limit:        limit,
					UpdatedAfter: p.UpdatedAfter,
					StatusIDs:    p.StatusIDs,
				})
				if err != nil {
					return err
				}
				pages[i] = books
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		short := false
		for i, books := range pages {
			all = append(all, books...)
			if len(books) < limits[i] {
				short = true
				break
			}
		}
		offset += len(limits) * size

		if p.OnProgress != nil {
			p.OnProgress(min(len(all), p.Total), p.Total)
		}
		if short || len(all) >= p.Total {
			break
		}
	}

	if len(all) > p.Total {
		all = all[:p.Total]
	}
	return all, nil
}
