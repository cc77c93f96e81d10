// Package alphavantage is a small client for the Alpha Vantage query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"InflectionTracker/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://www.alphavantage.co"

// publishedLayout is the time_published format of the news feed.
const publishedLayout = "20060102T150405"

// Client calls the Alpha Vantage query endpoint.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a client with optional proxy support.
func NewClient(baseURL, apiKey, proxyURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return &Client{client: c, apiKey: apiKey}
}

// apiStatus carries the fields Alpha Vantage uses to report failures with a
// 200 status.
type apiStatus struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (s apiStatus) err() error {
	switch {
	case s.ErrorMessage != "":
		return fmt.Errorf("alphavantage: %s", s.ErrorMessage)
	case s.Note != "":
		return fmt.Errorf("alphavantage rate limited: %s", s.Note)
	case s.Information != "":
		return fmt.Errorf("alphavantage: %s", s.Information)
	}
	return nil
}

func (c *Client) query(ctx context.Context, params map[string]string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: api key not configured")
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", params["function"], err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("alphavantage %s: status %d, body: %s", params["function"], resp.StatusCode(), resp.String())
	}
	var status apiStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	if err := status.err(); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

type monthlyResponse struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Monthly Time Series"`
}

// MonthlyCloses fetches TIME_SERIES_MONTHLY and returns closes oldest first.
func (c *Client) MonthlyCloses(ctx context.Context, symbol string) ([]model.PricePoint, error) {
	body, err := c.query(ctx, map[string]string{
		"function": "TIME_SERIES_MONTHLY",
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}
	return parseMonthly(body)
}

func parseMonthly(body []byte) ([]model.PricePoint, error) {
	var r monthlyResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("alphavantage decode monthly: %w", err)
	}
	if len(r.Series) == 0 {
		return nil, fmt.Errorf("alphavantage: no monthly data returned")
	}
	points := make([]model.PricePoint, 0, len(r.Series))
	for date, v := range r.Series {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("alphavantage date %q: %w", date, err)
		}
		price, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, fmt.Errorf("alphavantage close %q on %s: %w", v.Close, date, err)
		}
		points = append(points, model.PricePoint{Date: d, Price: price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// Article is one item of the NEWS_SENTIMENT feed.
type Article struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	Source                string            `json:"source"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []json.RawMessage `json:"ticker_sentiment"`
	Topics                []json.RawMessage `json:"topics"`
}

// PublishedDate converts time_published to an ISO timestamp.
func (a Article) PublishedDate() (string, error) {
	t, err := time.Parse(publishedLayout, a.TimePublished)
	if err != nil {
		return "", fmt.Errorf("time_published %q: %w", a.TimePublished, err)
	}
	return t.Format("2006-01-02T15:04:05"), nil
}

type newsResponse struct {
	Feed []Article `json:"feed"`
}

// News fetches NEWS_SENTIMENT for symbol between from and to.
func (c *Client) News(ctx context.Context, symbol string, from, to time.Time, limit int) ([]Article, error) {
	params := map[string]string{
		"function":  "NEWS_SENTIMENT",
		"tickers":   symbol,
		"time_from": from.Format("20060102T1504"),
		"time_to":   to.Format("20060102T1504"),
		"sort":      "EARLIEST",
	}
	if limit > 0 {
		params["limit"] = fmt.Sprint(limit)
	}
	body, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	var r newsResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("alphavantage decode news: %w", err)
	}
	log.Debug().Str("symbol", symbol).Int("articles", len(r.Feed)).Msg("alphavantage news fetched")
	return r.Feed, nil
}
