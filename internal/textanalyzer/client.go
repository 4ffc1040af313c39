// Package textanalyzer provides an HTTP client for the external TextAnalyzer
// collaborator: the service responsible for turning raw Japanese text into
// accent phrases (mora/accent/pitch breakdown) before the engine synthesizes
// audio from them.
//
// Calls are wrapped in a [resilience.CircuitBreaker] so a flaky analyzer
// degrades to a clear error instead of hanging every request that depends on
// it.
package textanalyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/utavox/cantariserver/internal/resilience"
	"github.com/utavox/cantariserver/pkg/engine/mora"
)

const (
	defaultTimeout = 10 * time.Second

	audioQueryEndpoint    = "/audio_query"
	accentPhrasesEndpoint = "/accent_phrases"
	moraDataEndpoint      = "/mora_data"
	moraPitchEndpoint     = "/mora_pitch"
	moraLengthEndpoint    = "/mora_length"
	userDictEndpoint      = "/user_dict"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCircuitBreaker overrides the default circuit breaker configuration.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// Client talks to the external TextAnalyzer service over HTTP. It is safe
// for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
}

// New creates a Client targeting baseURL (e.g. "http://localhost:50300").
// baseURL must be non-empty.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("textanalyzer: baseURL must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "textanalyzer",
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// AudioQuery requests a full [mora.AudioQuery] for text spoken by speakerID.
func (c *Client) AudioQuery(ctx context.Context, text string, speakerID uint32) (mora.AudioQuery, error) {
	var out mora.AudioQuery
	err := c.postQuery(ctx, audioQueryEndpoint, text, speakerID, &out)
	return out, err
}

// AccentPhrases requests the accent-phrase breakdown for text spoken by
// speakerID, without the surrounding AudioQuery envelope.
func (c *Client) AccentPhrases(ctx context.Context, text string, speakerID uint32) ([]mora.AccentPhrase, error) {
	var out []mora.AccentPhrase
	err := c.postQuery(ctx, accentPhrasesEndpoint, text, speakerID, &out)
	return out, err
}

// MoraData re-runs timing and pitch estimation over an already-built set of
// accent phrases for speakerID, returning the updated phrases.
func (c *Client) MoraData(ctx context.Context, phrases []mora.AccentPhrase, speakerID uint32) ([]mora.AccentPhrase, error) {
	var out []mora.AccentPhrase
	err := c.postPhrases(ctx, moraDataEndpoint, phrases, speakerID, &out)
	return out, err
}

// MoraPitch re-estimates only pitch over phrases for speakerID.
func (c *Client) MoraPitch(ctx context.Context, phrases []mora.AccentPhrase, speakerID uint32) ([]mora.AccentPhrase, error) {
	var out []mora.AccentPhrase
	err := c.postPhrases(ctx, moraPitchEndpoint, phrases, speakerID, &out)
	return out, err
}

// MoraLength re-estimates only duration over phrases for speakerID.
func (c *Client) MoraLength(ctx context.Context, phrases []mora.AccentPhrase, speakerID uint32) ([]mora.AccentPhrase, error) {
	var out []mora.AccentPhrase
	err := c.postPhrases(ctx, moraLengthEndpoint, phrases, speakerID, &out)
	return out, err
}

// UserDictList retrieves the raw user dictionary document as returned by the
// analyzer. The shape is opaque to the engine; it is passed through verbatim
// to HTTP clients.
func (c *Client) UserDictList(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, userDictEndpoint, nil, &out)
	return out, err
}

// UserDictAdd adds a word to the user dictionary. body is the raw JSON the
// caller received from its own HTTP request, passed through unmodified.
func (c *Client) UserDictAdd(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, userDictEndpoint, body, &out)
	return out, err
}

// UserDictUpdate updates an existing user dictionary entry by wordUUID.
func (c *Client) UserDictUpdate(ctx context.Context, wordUUID string, body json.RawMessage) error {
	return c.do(ctx, http.MethodPut, userDictEndpoint+"/"+url.PathEscape(wordUUID), body, nil)
}

// UserDictDelete removes a user dictionary entry by wordUUID.
func (c *Client) UserDictDelete(ctx context.Context, wordUUID string) error {
	return c.do(ctx, http.MethodDelete, userDictEndpoint+"/"+url.PathEscape(wordUUID), nil, nil)
}

// postQuery issues a POST to endpoint with "text" and "speaker" query
// parameters, as the reference HTTP surface expects, and decodes the JSON
// response into out.
func (c *Client) postQuery(ctx context.Context, endpoint, text string, speakerID uint32, out any) error {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", fmt.Sprintf("%d", speakerID))
	return c.do(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil, out)
}

// postPhrases issues a POST to endpoint with a JSON body of accent phrases
// and a "speaker" query parameter, decoding the JSON response into out.
func (c *Client) postPhrases(ctx context.Context, endpoint string, phrases []mora.AccentPhrase, speakerID uint32, out any) error {
	data, err := json.Marshal(phrases)
	if err != nil {
		return fmt.Errorf("textanalyzer: marshal accent phrases: %w", err)
	}
	params := url.Values{}
	params.Set("speaker", fmt.Sprintf("%d", speakerID))
	return c.do(ctx, http.MethodPost, endpoint+"?"+params.Encode(), data, out)
}

// do executes a single HTTP call through the circuit breaker, optionally
// marshaling body (already-encoded JSON bytes or nil) and decoding the JSON
// response into out (nil to discard the body).
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	breakerErr := c.breaker.Execute(func() error {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return fmt.Errorf("textanalyzer: create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("textanalyzer: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("textanalyzer: %s %s returned status %d: %s", method, path, resp.StatusCode, string(msg))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("textanalyzer: decode response from %s: %w", path, err)
		}
		return nil
	})

	if errors.Is(breakerErr, resilience.ErrCircuitOpen) {
		return fmt.Errorf("textanalyzer: %w", breakerErr)
	}
	return breakerErr
}
