// Package codeforces is a minimal client for the Codeforces public API.
package codeforces

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coding-arena/arena/internal/standings"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://codeforces.com/api"

	// The API rejects callers that exceed roughly one request every two seconds.
	DefaultRateLimit = rate.Limit(0.5)
	DefaultBurst     = 1
)

var ErrMissingResult = errors.New("codeforces: response has no result")

// APIError is returned when the API answers with a non-OK envelope or an
// unexpected HTTP status.
type APIError struct {
	Method     string
	StatusCode int
	Status     string
	Comment    string
}

func (e *APIError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("codeforces %s: %s (http %d): %s", e.Method, e.Status, e.StatusCode, e.Comment)
	}
	return fmt.Sprintf("codeforces %s: %s (http %d)", e.Method, e.Status, e.StatusCode)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  rate.Limit
	Burst      int
	APIKey     string
	APISecret  string
}

// Client talks to the Codeforces API. It is safe for concurrent use; all
// requests share one rate limiter.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	apiKey    string
	apiSecret string

	now  func() time.Time
	rand func() string
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(opts.RateLimit, opts.Burst),
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		now:       time.Now,
		rand:      randomPrefix,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

type problem struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
}

type submission struct {
	ID                  int64   `json:"id"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

// UserStatus returns every submission of handle, newest first as the API
// orders them.
func (c *Client) UserStatus(ctx context.Context, handle string) ([]standings.Submission, error) {
	var raw []submission
	if err := c.call(ctx, "user.status", url.Values{"handle": {handle}}, &raw); err != nil {
		return nil, err
	}

	subs := make([]standings.Submission, 0, len(raw))
	for _, s := range raw {
		subs = append(subs, standings.Submission{
			ContestID: s.Problem.ContestID,
			Index:     s.Problem.Index,
			Verdict:   s.Verdict,
			CreatedAt: s.CreationTimeSeconds,
		})
	}
	return subs, nil
}

// Wait blocks until the shared limiter grants the next request. Callers that
// got a slot this way pass standings.WithTurn(ctx) to the request that uses it.
func (c *Client) Wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	if !standings.HasTurn(ctx) {
		if err := c.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.baseURL + "/" + method + "?" + c.encode(method, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("codeforces %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Method: method, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK || env.Status != "OK" {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Status: env.Status, Comment: env.Comment}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return ErrMissingResult
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	zap.S().Debugf("codeforces %s %v ok", method, params)
	return nil
}

// encode adds apiKey, time and apiSig when the client has credentials.
func (c *Client) encode(method string, params url.Values) string {
	if c.apiKey == "" || c.apiSecret == "" {
		return params.Encode()
	}

	signed := url.Values{}
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	signed.Set("apiKey", c.apiKey)
	signed.Set("time", strconv.FormatInt(c.now().Unix(), 10))
	signed.Set("apiSig", c.sign(method, signed))
	return signed.Encode()
}

// sign computes rand + hex(sha512("rand/method?sorted params#secret")).
func (c *Client) sign(method string, params url.Values) string {
	type pair struct{ k, v string }
	var pairs []pair
	for k, vs := range params {
		for _, v := range vs {
			pairs = append(pairs, pair{k, v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}

	prefix := c.rand()
	sum := sha512.Sum512([]byte(prefix + "/" + method + "?" + strings.Join(parts, "&") + "#" + c.apiSecret))
	return prefix + hex.EncodeToString(sum[:])
}

func randomPrefix() string {
	const digits = "0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = digits[rand.IntN(len(digits))]
	}
	return string(b)
}

var (
	_ standings.SubmissionSource = (*Client)(nil)
	_ standings.Throttle         = (*Client)(nil)
)
