package fbref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/charleschow/squad-weights/internal/config"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

const (
	defaultBaseURL = "https://fbref.com"
	matchPath      = "/en/matches/"
	pageCacheSize  = 8
)

// errNotFound marks a 404; callers see it as missing match data.
var errNotFound = fmt.Errorf("page not found: %w", stattable.ErrMissingMatchData)

// Options configure a Client.
type Options struct {
	BaseURL      string
	SchedulePath string
	UserAgent    string
	Team         string
	League       string
	Season       string

	RequestsPerMinute int
	MaxRetries        int
	Timeout           time.Duration
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

// Client scrapes schedule, lineup and player statistics pages.
// It satisfies season.ScheduleSource, roster.LineupSource and
// matchstats.StatsSource.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.Mutex
	pages map[string]*goquery.Document
	order []string
	games map[string]string // match id -> game slug from the schedule

	sfGroup singleflight.Group
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RequestsPerMinute < 1 {
		opts.RequestsPerMinute = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		pages:      make(map[string]*goquery.Document),
		games:      make(map[string]string),
	}
}

// fetch GETs path, retrying transport errors, 429 and 5xx responses.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			telemetry.Metrics.FetchRetries.Inc()
			delay := c.opts.Backoff << (attempt - 1)
			telemetry.Warnf("fbref: retry %d/%d for %s in %s: %v", attempt, c.opts.MaxRetries, path, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retry, err := c.get(ctx, path)
		if err == nil {
			return body, nil
		}
		if !retry || ctx.Err() != nil {
			telemetry.Metrics.FetchErrors.Inc()
			return nil, err
		}
		lastErr = err
	}
	telemetry.Metrics.FetchErrors.Inc()
	return nil, fmt.Errorf("fbref %s: giving up after %d retries: %w", path, c.opts.MaxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, path string) (body []byte, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("new request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	telemetry.Metrics.FetchRequests.Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	telemetry.Metrics.FetchLatency.Record(elapsed)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	telemetry.Debugf("fbref: GET %s -> %d (%s, %s)", path, resp.StatusCode, humanize.Bytes(uint64(len(body))), elapsed)

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("GET %s: %w", path, errNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return nil, false, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
}

// document fetches and parses a page. Tables fbref ships inside HTML
// comments are uncommented first.
func (c *Client) document(ctx context.Context, path string) (*goquery.Document, error) {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	body = bytes.ReplaceAll(body, []byte("<!--"), nil)
	body = bytes.ReplaceAll(body, []byte("-->"), nil)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// matchDocument returns the match report page, cached across the lineup
// and per-category lookups of one match.
func (c *Client) matchDocument(ctx context.Context, matchID string) (*goquery.Document, error) {
	if matchID == "" {
		return nil, fmt.Errorf("empty match id: %w", stattable.ErrMissingMatchData)
	}

	c.mu.Lock()
	doc, ok := c.pages[matchID]
	c.mu.Unlock()
	if ok {
		return doc, nil
	}

	v, err, _ := c.sfGroup.Do(matchID, func() (any, error) {
		doc, err := c.document(ctx, matchPath+matchID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.pages[matchID]; !ok {
			c.pages[matchID] = doc
			c.order = append(c.order, matchID)
			if len(c.order) > pageCacheSize {
				delete(c.pages, c.order[0])
				c.order = c.order[1:]
			}
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*goquery.Document), nil
}

func (c *Client) gameFor(matchID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.games[matchID]
	return g, ok
}

// IsNotFound reports whether err came from a 404 page.
func IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

// OptionsFromPipeline maps the pipeline's fbref section onto client options.
func OptionsFromPipeline(p config.Pipeline) Options {
	return Options{
		BaseURL:           p.FBref.BaseURL,
		SchedulePath:      p.FBref.SchedulePath,
		UserAgent:         p.FBref.UserAgent,
		Team:              p.Team,
		League:            p.League,
		Season:            p.Season,
		RequestsPerMinute: p.FBref.RequestsPerMinute,
		MaxRetries:        p.FBref.MaxRetries,
		Timeout:           p.FBref.Timeout(),
	}
}
