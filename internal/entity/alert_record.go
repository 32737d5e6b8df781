package entity

import (
	"fmt"
	"time"
)

// AlertRecord is the persisted form of an Alert. Absent timestamps are
// serialized as null.
type AlertRecord struct {
	ID          string  `json:"alert_id"`
	Ticker      string  `json:"ticker"`
	TargetPrice float64 `json:"target_price"`
	Direction   string  `json:"alert_type"`
	Status      string  `json:"status"`
	OneTime     *bool   `json:"one_time"`
	CreatedAt   string  `json:"created_at"`
	LastChecked *string `json:"last_checked"`
	TriggeredAt *string `json:"triggered_at"`
}

// timestampLayouts are tried in order when reading. Records written by older
// versions carry zone-less ISO 8601 timestamps in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ToRecord converts the alert to its persisted form.
func (a *Alert) ToRecord() AlertRecord {
	oneTime := a.OneTime
	return AlertRecord{
		ID:          a.ID,
		Ticker:      a.Ticker,
		TargetPrice: a.TargetPrice,
		Direction:   string(a.Direction),
		Status:      string(a.Status),
		OneTime:     &oneTime,
		CreatedAt:   formatTimestamp(a.CreatedAt),
		LastChecked: formatOptionalTimestamp(a.LastCheckedAt),
		TriggeredAt: formatOptionalTimestamp(a.TriggeredAt),
	}
}

// AlertFromRecord validates a persisted record and rebuilds the alert. A
// missing one_time flag defaults to true, a missing ID or creation time is
// generated.
func AlertFromRecord(r AlertRecord) (*Alert, error) {
	oneTime := true
	if r.OneTime != nil {
		oneTime = *r.OneTime
	}

	params := AlertParams{
		ID:          r.ID,
		Ticker:      r.Ticker,
		TargetPrice: r.TargetPrice,
		Direction:   r.Direction,
		Status:      r.Status,
		OneTime:     oneTime,
	}

	var err error
	if r.CreatedAt != "" {
		if params.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
			return nil, &ValidationError{Field: "created_at", Reason: err.Error()}
		}
	}
	if params.LastCheckedAt, err = parseOptionalTimestamp(r.LastChecked); err != nil {
		return nil, &ValidationError{Field: "last_checked", Reason: err.Error()}
	}
	if params.TriggeredAt, err = parseOptionalTimestamp(r.TriggeredAt); err != nil {
		return nil, &ValidationError{Field: "triggered_at", Reason: err.Error()}
	}

	return NewAlert(params)
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseOptionalTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTimestamp(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
