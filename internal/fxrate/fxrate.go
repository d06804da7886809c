// Package fxrate looks up the USD exchange rate used to show payouts in a
// local currency. The lookup is best effort: any failure yields the configured
// fallback rate and never an error.
package fxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// fallbackRetry is how long a fallback rate is served before the upstream is
// asked again.
const fallbackRetry = time.Minute

// Rate is a USD exchange rate.
type Rate struct {
	Code      string    `json:"code"`
	Value     float64   `json:"value"`
	Live      bool      `json:"live"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Convert turns a USD amount into the rate's currency.
func (r Rate) Convert(usd float64) float64 {
	return usd * r.Value
}

// Options configures a Provider. Zero values select the defaults.
type Options struct {
	URL      string
	Code     string
	Fallback float64
	Timeout  time.Duration
	TTL      time.Duration
	Client   *http.Client
}

// Provider fetches and caches the rate. It is safe for concurrent use;
// concurrent lookups share one upstream request.
type Provider struct {
	logger *zap.Logger
	opts   Options
	client *http.Client
	group  singleflight.Group
	now    func() time.Time

	mu      sync.Mutex
	cached  Rate
	expires time.Time
}

// NewProvider returns a provider with defaults applied to opts.
func NewProvider(logger *zap.Logger, opts Options) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.URL == "" {
		opts.URL = constants.DefaultRateURL
	}
	opts.Code = strings.ToUpper(strings.TrimSpace(opts.Code))
	if opts.Code == "" {
		opts.Code = constants.DefaultCurrencyCode
	}
	if opts.Fallback <= 0 {
		opts.Fallback = constants.DefaultExchangeRate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(constants.DefaultRateTimeoutSeconds) * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Duration(constants.RateCacheMinutes) * time.Minute
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Provider{
		logger: logger,
		opts:   opts,
		client: client,
		now:    time.Now,
	}
}

// Code returns the currency the provider converts into.
func (p *Provider) Code() string {
	return p.opts.Code
}

// Rate returns the current rate, from cache when fresh.
func (p *Provider) Rate(ctx context.Context) Rate {
	if rate, ok := p.fresh(); ok {
		return rate
	}

	v, _, _ := p.group.Do(p.opts.Code, func() (interface{}, error) {
		if rate, ok := p.fresh(); ok {
			return rate, nil
		}

		// Waiters share this fetch, so one caller going away must not fail it.
		rate, err := p.fetch(context.WithoutCancel(ctx))
		if err != nil {
			p.logger.Warn("exchange rate unavailable, using fallback",
				zap.String("op", "fxrate.Rate"),
				zap.String("code", p.opts.Code),
				zap.Float64("fallback", p.opts.Fallback),
				zap.Error(err),
			)
			rate = Rate{Code: p.opts.Code, Value: p.opts.Fallback, FetchedAt: p.now()}
			p.remember(rate, fallbackRetry)
			return rate, nil
		}

		p.logger.Debug("exchange rate refreshed",
			zap.String("op", "fxrate.Rate"),
			zap.String("code", rate.Code),
			zap.Float64("rate", rate.Value),
		)
		p.remember(rate, p.opts.TTL)
		return rate, nil
	})
	return v.(Rate)
}

func (p *Provider) fresh() (Rate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached.Value > 0 && p.now().Before(p.expires) {
		return p.cached, true
	}
	return Rate{}, false
}

func (p *Provider) remember(rate Rate, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = rate
	p.expires = p.now().Add(ttl)
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (p *Provider) fetch(ctx context.Context) (Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = time.Second

	operation := func() (Rate, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
		if err != nil {
			return Rate{}, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return Rate{}, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			return Rate{}, fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return Rate{}, backoff.Permanent(fmt.Errorf("upstream returned %d", resp.StatusCode))
		}

		var body ratesResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return Rate{}, backoff.Permanent(fmt.Errorf("failed to decode rates: %w", err))
		}
		value, ok := body.Rates[p.opts.Code]
		if !ok || value <= 0 {
			return Rate{}, backoff.Permanent(errors.New("no usable rate for " + p.opts.Code))
		}
		return Rate{Code: p.opts.Code, Value: value, Live: true, FetchedAt: p.now()}, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(p.opts.Timeout),
	)
}
