// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package client fetches datasets from a market data API and assembles
// them into tables.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gridtable/datatable"
	"gridtable/schema"
)

const datasetPath = "/v4/data/network/%s"

const userAgent = "gridtable/1.0"

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 3
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrAPIFailure is returned when the server reports an error, either at
// the HTTP level or inside the response envelope.
var ErrAPIFailure = errors.New("api request failed")

// Config holds the client settings.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	RetryMax int           `yaml:"retry_max"`
	Logger   log.Logger    `yaml:"-"`
}

// UnmarshalYAML decodes the on-disk form, where the timeout is a Go
// duration string like "30s".
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Timeout  string `yaml:"timeout"`
		RetryMax int    `yaml:"retry_max"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.BaseURL = raw.BaseURL
	c.APIKey = raw.APIKey
	c.RetryMax = raw.RetryMax
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return errors.Wrap(err, "timeout")
		}
		c.Timeout = d
	}
	return nil
}

// Client talks to one market data API instance.
type Client struct {
	cfg    Config
	http   *http.Client
	logger log.Logger
}

// New builds a client. A zero Timeout or RetryMax picks the defaults;
// a nil Logger silences the client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = defaultRetryMax
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// DatasetQuery names what to fetch: a network, the metrics wanted and
// optionally regions, a date range and a bucket interval.
type DatasetQuery struct {
	Network  string
	Metrics  []string
	Regions  []string
	Start    time.Time
	End      time.Time
	Interval string
}

func (q DatasetQuery) validate() (schema.Network, error) {
	network, ok := schema.NetworkByCode(q.Network)
	if !ok {
		return schema.Network{}, errors.Errorf("unknown network %q", q.Network)
	}
	if len(q.Metrics) == 0 {
		return schema.Network{}, errors.New("at least one metric is required")
	}
	for _, r := range q.Regions {
		if !network.HasRegion(r) {
			return schema.Network{}, errors.Errorf("network %s has no region %q", network.Code, r)
		}
	}
	return network, nil
}

func (q DatasetQuery) params() url.Values {
	params := url.Values{}
	for _, m := range q.Metrics {
		params.Add("metrics", m)
	}
	for _, r := range q.Regions {
		params.Add("regions", r)
	}
	if !q.Start.IsZero() {
		params.Set("date_start", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("date_end", q.End.UTC().Format(time.RFC3339))
	}
	if q.Interval != "" {
		params.Set("interval", q.Interval)
	}
	return params
}

// FetchDataset fetches the described dataset and merges its metric
// series into one table, one row per timestamp and grouping tuple.
// Missing readings come back as no-data values. A server-reported
// error, or an HTTP error that survives the retries, is returned as
// ErrAPIFailure.
func (c *Client) FetchDataset(ctx context.Context, q DatasetQuery) (*datatable.Table, error) {
	network, err := q.validate()
	if err != nil {
		return nil, err
	}

	us, err := buildURL(c.cfg.BaseURL, fmt.Sprintf(datasetPath, network.Code), q.params().Encode())
	if err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := c.doRequest(ctx, us, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		msg := "unknown error"
		if envelope.Error != nil {
			msg = *envelope.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrAPIFailure, msg)
	}
	return buildTable(envelope.Data)
}

// doRequest GETs the URL and decodes the response envelope, retrying
// transient failures with backoff.
func (c *Client) doRequest(ctx context.Context, us string, out interface{}) error {
	level.Debug(c.logger).Log("msg", "fetching", "url", us)

	b := newBackoff()
	for attempt := 0; ; attempt++ {
		body, retryable, err := c.get(ctx, us)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return errors.Wrap(err, "decoding response")
			}
			return nil
		}
		if !retryable || attempt >= c.cfg.RetryMax {
			return err
		}
		level.Warn(c.logger).Log("msg", "request failed, backing off", "attempt", attempt+1, "err", err)
		if werr := b.wait(ctx); werr != nil {
			return werr
		}
	}
}

// get performs one GET. The second return reports whether the failure
// is transient and worth retrying.
func (c *Client) get(ctx context.Context, us string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, us, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			level.Warn(c.logger).Log("msg", "error closing response body", "err", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode/100 != 2 {
		err := fmt.Errorf("%w: server returned %s: %s", ErrAPIFailure, resp.Status, strings.TrimSpace(string(body)))
		return nil, resp.StatusCode >= 500, err
	}
	return body, false, nil
}

// buildURL concats a url `http://foo/bar` with a path `/buzz`.
func buildURL(u, p, q string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	parsed.Path = path.Join(parsed.Path, p)
	parsed.RawQuery = q
	return parsed.String(), nil
}
