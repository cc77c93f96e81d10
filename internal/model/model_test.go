package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPriceSeries_Validate(t *testing.T) {
	good := PriceSeries{Points: []PricePoint{
		{Date: day(2024, 1, 1), Price: decimal.NewFromInt(10)},
		{Date: day(2024, 2, 1), Price: decimal.NewFromInt(11)},
	}}
	assert.NoError(t, good.Validate())
	assert.Equal(t, day(2024, 1, 1), good.Start())
	assert.Equal(t, day(2024, 2, 1), good.End())
	assert.Len(t, good.Prices(), 2)

	unsorted := PriceSeries{Points: []PricePoint{
		{Date: day(2024, 2, 1), Price: decimal.NewFromInt(10)},
		{Date: day(2024, 1, 1), Price: decimal.NewFromInt(11)},
	}}
	assert.ErrorIs(t, unsorted.Validate(), ErrUnsortedSeries)

	dup := PriceSeries{Points: []PricePoint{
		{Date: day(2024, 1, 1), Price: decimal.NewFromInt(10)},
		{Date: day(2024, 1, 1).Add(time.Hour), Price: decimal.NewFromInt(11)},
	}}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateDate)

	negative := PriceSeries{Points: []PricePoint{{Date: day(2024, 1, 1), Price: decimal.NewFromInt(-1)}}}
	assert.ErrorIs(t, negative.Validate(), ErrNonPositivePrice)

	var empty PriceSeries
	assert.NoError(t, empty.Validate())
	assert.True(t, empty.Start().IsZero())
}

func TestInflectionPoint_UnmarshalDocumentedShape(t *testing.T) {
	raw := `[
		{"date": "2001-01-01", "price": 12.5, "index": 0, "prev_date": null, "prev_price": null, "price_change": null},
		{"date": "2001-05-01", "price": 20.25, "index": 4, "prev_date": "2001-04-01", "prev_price": 18, "price_change": 2.25}
	]`
	var points []InflectionPoint
	require.NoError(t, json.Unmarshal([]byte(raw), &points))
	require.Len(t, points, 2)

	assert.Nil(t, points[0].PrevDate)
	assert.Equal(t, KindUnknown, points[0].Kind())
	assert.Equal(t, "2001-05-01", points[1].DateString())
	assert.True(t, points[1].PriceChange.Equal(decimal.RequireFromString("2.25")))
	assert.Equal(t, KindPeak, points[1].Kind())

	out, err := json.Marshal(points)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestInflectionPoint_UnmarshalRejectsBadDate(t *testing.T) {
	var p InflectionPoint
	assert.Error(t, json.Unmarshal([]byte(`{"date": "01/05/2001", "price": 1, "index": 1}`), &p))
}

func TestNewsRecord_DecodeAndPassThrough(t *testing.T) {
	raw := `{"news_article": {"publishedDate": "2024-11-29T14:00:00Z", "title": "t"}, "analysis": {"sentiment": "positive"}}`
	var r NewsRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, "2024-11-29T14:00:00Z", r.PublishedDate)
	assert.False(t, r.Failed)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestNewsRecord_Errors(t *testing.T) {
	var r NewsRecord
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"title": "x"}`), &r), ErrMissingDate)
	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &r))

	require.NoError(t, json.Unmarshal([]byte(`{"error": "timeout"}`), &r))
	assert.True(t, r.Failed)
}

func TestGrouping_Dates(t *testing.T) {
	g := Grouping{
		"2024-03-01": {News: []NewsRecord{{PublishedDate: "2024-03-02"}}},
		"2023-01-01": {News: []NewsRecord{{PublishedDate: "2023-01-02"}, {PublishedDate: "2023-01-03"}}},
	}
	assert.Equal(t, []string{"2023-01-01", "2024-03-01"}, g.Dates())
	assert.Equal(t, 3, g.NewsCount())
}
