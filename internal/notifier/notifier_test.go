package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"InflectionTracker/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inflectionAt(date string, price, prev string) model.InflectionPoint {
	d, _ := time.Parse(model.DateLayout, date)
	p := model.InflectionPoint{Date: d, Price: decimal.RequireFromString(price), Index: 5}
	pp := decimal.RequireFromString(prev)
	change := p.Price.Sub(pp)
	pd := d.AddDate(0, -1, 0)
	p.PrevDate, p.PrevPrice, p.PriceChange = &pd, &pp, &change
	return p
}

func TestFormatInflection(t *testing.T) {
	assert.Equal(t, "🔺 2022-06-01  74.00 (+23.3%)", FormatInflection(inflectionAt("2022-06-01", "74", "60")))
	assert.Equal(t, "🔻 2020-10-01  10.00 (-50.0%)", FormatInflection(inflectionAt("2020-10-01", "10", "20")))
}

func TestFormatRunReport(t *testing.T) {
	peak := inflectionAt("2022-06-01", "74", "60")
	trough := inflectionAt("2020-10-01", "10", "20")
	rec, err := model.NewNewsRecord("2022-06-03", map[string]any{"title": "t"})
	require.NoError(t, err)

	msg := FormatRunReport(&RunSummary{
		Symbol:      "OXY",
		Source:      "yahoo",
		Inflections: []model.InflectionPoint{trough, peak},
		New:         []model.InflectionPoint{peak},
		Grouping:    model.Grouping{"2022-06-01": {Inflection: &peak, News: []model.NewsRecord{rec}}},
		Crossover:   &model.CrossoverResult{ShortPeriod: 4, LongPeriod: 9, Crossovers: 6},
	})
	assert.Contains(t, msg, "OXY")
	assert.Contains(t, msg, "MA4 / MA9")
	assert.Contains(t, msg, "拐点数量: 2 | 新增: 1")
	assert.Contains(t, msg, "2022-06-01  74.00 (+23.3%) | 新闻 1 条 🆕")

	empty := FormatRunReport(&RunSummary{Symbol: "OXY"})
	assert.Contains(t, empty, "未发现显著拐点")
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body["chat_id"])
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "TOKEN", "42", "")
	n.backoff = time.Millisecond
	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 2))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegramNotifier_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "TOKEN", "42", "")
	n.backoff = time.Millisecond
	err := n.SendWithRetry(context.Background(), "hello", 1)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
}
