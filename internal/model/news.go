package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMissingDate = errors.New("news record has no publishedDate")

// NewsRecord is an externally produced news item. Only the publication date
// is interpreted; the payload is carried through verbatim.
type NewsRecord struct {
	PublishedDate string
	Payload       json.RawMessage
	// Failed is set when the producing pipeline marked the record with an
	// "error" key.
	Failed bool
}

type newsEnvelope struct {
	PublishedDate *string `json:"publishedDate"`
	NewsArticle   *struct {
		PublishedDate *string `json:"publishedDate"`
	} `json:"news_article"`
	Error json.RawMessage `json:"error"`
}

// NewNewsRecord builds a record from a field map, setting publishedDate on it.
func NewNewsRecord(publishedDate string, fields map[string]any) (NewsRecord, error) {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["publishedDate"] = publishedDate
	raw, err := json.Marshal(payload)
	if err != nil {
		return NewsRecord{}, fmt.Errorf("marshal news payload: %w", err)
	}
	return NewsRecord{PublishedDate: publishedDate, Payload: raw}, nil
}

// UnmarshalJSON reads publishedDate from the top level or from a nested
// news_article object.
func (r *NewsRecord) UnmarshalJSON(data []byte) error {
	var env newsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode news record: %w", err)
	}
	var date *string
	switch {
	case env.PublishedDate != nil:
		date = env.PublishedDate
	case env.NewsArticle != nil && env.NewsArticle.PublishedDate != nil:
		date = env.NewsArticle.PublishedDate
	}
	failed := len(env.Error) > 0
	if date == nil && !failed {
		return ErrMissingDate
	}
	r.Payload = append(json.RawMessage(nil), data...)
	r.Failed = failed
	r.PublishedDate = ""
	if date != nil {
		r.PublishedDate = *date
	}
	return nil
}

func (r NewsRecord) MarshalJSON() ([]byte, error) {
	if len(r.Payload) > 0 {
		return r.Payload, nil
	}
	return json.Marshal(map[string]string{"publishedDate": r.PublishedDate})
}
