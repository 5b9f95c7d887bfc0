package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/smukkama/pedestrian-stats/internal/logging"
)

// DefaultPageSize is the number of records requested per page
const DefaultPageSize = 50000

// ClientConfig configures the paged CSV client
type ClientConfig struct {
	PageSize  int
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
}

// Client retrieves complete CSV datasets from a paged endpoint. Every run
// is a full reload; the source guarantees nothing about offsets between runs.
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[[]byte]
	pageSize int
}

// NewClient creates a new paged CSV client
func NewClient(cfg ClientConfig) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "source-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		// Open after 3 consecutive failed pages
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
		},
	})

	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
		cb:       cb,
		pageSize: cfg.PageSize,
	}
}

// FetchAll requests pages of pageSize records until a page comes back short
// and returns the header and every record of every page
func (c *Client) FetchAll(ctx context.Context, baseURL string) ([]string, [][]string, error) {
	var header []string
	var records [][]string

	for page := 0; ; page++ {
		endpoint := pageURL(baseURL, c.pageSize, page*c.pageSize)

		rows, err := c.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, nil, err
		}
		if len(rows) == 0 {
			if header == nil {
				return nil, nil, fmt.Errorf("empty response from %s", endpoint)
			}
			break
		}

		if header == nil {
			header = rows[0]
		} else if !sameHeader(header, rows[0]) {
			return nil, nil, fmt.Errorf("page %d of %s changed columns: %v", page, baseURL, rows[0])
		}

		data := rows[1:]
		records = append(records, data...)
		logging.Debug().Str("endpoint", endpoint).Int("records", len(data)).Msg("Fetched page")

		if len(data) < c.pageSize {
			break
		}
	}

	return header, records, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/csv")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("source unavailable: %w", err)
		}
		return nil, err
	}

	rows, err := readCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", endpoint, err)
	}
	return rows, nil
}

func pageURL(baseURL string, limit, offset int) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s$limit=%d&$offset=%d", baseURL, sep, limit, offset)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}
