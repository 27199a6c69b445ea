package github

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/commitscope/commitscope/internal/model"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL         = "https://api.github.com"
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultRateLimitBuffer = 10

	acceptHeader = "application/vnd.github.v3+json"

	backoffBase = 2 * time.Second
	backoffCap  = 10 * time.Second

	defaultMaxRateLimitWait = time.Hour
)

// Config configures the API client.
type Config struct {
	Token            string
	BaseURL          string
	Timeout          time.Duration
	MaxRetries       int
	RateLimitBuffer  int
	MaxRateLimitWait time.Duration
}

// Client issues authenticated requests against the GitHub REST API.
// Every request goes through a rate-limit budget pre-check and a retry
// loop with exponential backoff for transient failures. The client is
// used from a single goroutine: the rate budget is global to the token,
// so requests are deliberately serialized.
type Client struct {
	httpc   *http.Client
	baseURL string
	limiter *RateLimiter
	stats   *model.RunStats
	cfg     Config
	logger  logze.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an API client authenticated with the given token.
func NewClient(cfg Config, stats *model.RunStats) (*Client, error) {
	if cfg.Token == "" {
		return nil, errm.New("GitHub token is required")
	}
	cfg.BaseURL = strings.TrimSuffix(lang.Check(cfg.BaseURL, defaultBaseURL), "/")
	cfg.Timeout = lang.Check(cfg.Timeout, defaultTimeout)
	cfg.MaxRetries = lang.Check(cfg.MaxRetries, defaultMaxRetries)
	cfg.RateLimitBuffer = lang.Check(cfg.RateLimitBuffer, defaultRateLimitBuffer)
	cfg.MaxRateLimitWait = lang.Check(cfg.MaxRateLimitWait, defaultMaxRateLimitWait)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpc := oauth2.NewClient(context.Background(), ts)
	httpc.Timeout = cfg.Timeout

	return &Client{
		httpc:   httpc,
		baseURL: cfg.BaseURL,
		limiter: NewRateLimiter(cfg.RateLimitBuffer),
		stats:   stats,
		cfg:     cfg,
		logger:  logze.With("component", "github"),
		sleep:   sleepContext,
	}, nil
}

// Budget returns the rate-limit budget seen on the last response.
func (c *Client) Budget() RateBudget {
	return c.limiter.Budget()
}

// Response is one API response: the raw payload plus the pagination
// link extracted from the Link header, if any.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	NextURL    string
}

type attemptOutcome int

const (
	outcomeSuccess attemptOutcome = iota
	outcomeTransient
	outcomeRateLimited
	outcomePermanent
)

// Execute performs one GET request against an absolute API URL. It
// waits out the rate-limit budget before sending, retries transient
// failures with exponential backoff up to MaxRetries, and waits out
// rate-limit rejections up to MaxRateLimitWait in total. Permanent
// failures are returned immediately as typed errors.
func (c *Client) Execute(ctx context.Context, rawurl string) (*Response, error) {
	if ok, wait := c.limiter.CheckBudget(); !ok {
		c.logger.Warn("rate limit budget exhausted, waiting",
			"wait", wait.String(), "remaining", c.limiter.Budget().Remaining, "url", rawurl)
		c.stats.RateLimitWaits++
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	var attempt int
	var rateWaited time.Duration
	for {
		resp, outcome, err := c.attempt(ctx, rawurl)
		switch outcome {
		case outcomeSuccess:
			return resp, nil

		case outcomePermanent:
			return nil, err

		case outcomeRateLimited:
			wait := c.rateLimitWait(resp)
			if rateWaited+wait > c.cfg.MaxRateLimitWait {
				return nil, &RetryExhaustedError{
					Attempts:   attempt + 1,
					LastStatus: resp.StatusCode,
					URL:        rawurl,
					Err:        err,
				}
			}
			rateWaited += wait
			c.stats.RateLimitWaits++
			c.logger.Warn("rate limit exceeded, waiting until reset",
				"wait", wait.String(), "url", rawurl)
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, serr
			}
			// a rate-limit wait does not consume a retry attempt

		case outcomeTransient:
			lastStatus := 0
			if resp != nil {
				lastStatus = resp.StatusCode
			}
			if attempt == c.cfg.MaxRetries {
				return nil, &RetryExhaustedError{
					Attempts:   attempt + 1,
					LastStatus: lastStatus,
					URL:        rawurl,
					Err:        err,
				}
			}
			delay := backoffDelay(attempt)
			c.stats.Retries++
			attempt++
			c.logger.Debug("transient failure, retrying",
				"attempt", attempt, "delay", delay.String(), "url", rawurl, "error", err)
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}
		}
	}
}

// attempt sends the request once and classifies the outcome.
func (c *Client) attempt(ctx context.Context, rawurl string) (*Response, attemptOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, outcomePermanent, errm.Wrap(err, "build request")
	}
	req.Header.Set("Accept", acceptHeader)

	c.stats.Requests++
	httpResp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcomePermanent, ctx.Err()
		}
		return nil, outcomeTransient, errm.Wrap(err, "request failed")
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, outcomeTransient, errm.Wrap(err, "read response body")
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header,
		NextURL:    parseNextLink(httpResp.Header.Get("Link")),
	}

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
		c.limiter.UpdateFromResponse(httpResp.Header)
		return resp, outcomeSuccess, nil

	case isRateLimited(httpResp.StatusCode, httpResp.Header, body):
		c.limiter.UpdateFromResponse(httpResp.Header)
		return resp, outcomeRateLimited, errm.New("rate limit exceeded (status %d) for %s", httpResp.StatusCode, rawurl)

	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return resp, outcomePermanent, &AuthError{StatusCode: httpResp.StatusCode, URL: rawurl}

	case httpResp.StatusCode == http.StatusNotFound:
		return resp, outcomePermanent, &NotFoundError{URL: rawurl}

	case httpResp.StatusCode >= 500:
		return resp, outcomeTransient, errm.New("server error (status %d) for %s", httpResp.StatusCode, rawurl)

	default:
		return resp, outcomePermanent, &ClientError{
			StatusCode: httpResp.StatusCode,
			URL:        rawurl,
			Body:       lang.TruncateString(string(body), 200),
		}
	}
}

// rateLimitWait derives how long to wait after a rate-limit rejection,
// preferring Retry-After over the reset header.
func (c *Client) rateLimitWait(resp *Response) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			return time.Duration(secs)*time.Second + time.Second
		}
	}
	if reset, err := strconv.ParseInt(resp.Header.Get(headerRateReset), 10, 64); err == nil {
		if wait := time.Until(time.Unix(reset, 0)); wait > 0 {
			return wait + time.Second
		}
	}
	return backoffBase
}

// backoffDelay is the delay before retry attempt+1: base doubled per
// attempt, capped.
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << attempt
	if delay > backoffCap || delay <= 0 {
		return backoffCap
	}
	return delay
}

// isRateLimited distinguishes a rate-limit rejection from a plain 403.
func isRateLimited(status int, h http.Header, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status != http.StatusForbidden {
		return false
	}
	return h.Get(headerRateRemaining) == "0" ||
		strings.Contains(strings.ToLower(string(body)), "rate limit")
}

// parseNextLink extracts the rel="next" URL from a Link header.
func parseNextLink(link string) string {
	for _, part := range strings.Split(link, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		if strings.TrimSpace(sections[1]) == `rel="next"` {
			return strings.Trim(strings.TrimSpace(sections[0]), "<>")
		}
	}
	return ""
}

// endpoint builds an absolute API URL with query parameters.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
