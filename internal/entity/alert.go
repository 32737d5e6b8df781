package entity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stock-price-alert/pkg/utils"
)

// Direction is the side of the threshold that fires an alert.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// ParseDirection accepts "above" or "below" in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DirectionAbove, DirectionBelow:
		return d, nil
	}
	return "", &ValidationError{Field: "alert_type", Reason: "must be 'above' or 'below'"}
}

// Status governs whether an alert is evaluated by the monitor.
type Status string

const (
	StatusActive    Status = "active"
	StatusTriggered Status = "triggered"
	StatusDisabled  Status = "disabled"
)

// ParseStatus accepts "active", "triggered" or "disabled" in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusTriggered, StatusDisabled:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Reason: "must be 'active', 'triggered' or 'disabled'"}
}

// Alert is a price threshold on a single ticker together with its lifecycle
// state.
type Alert struct {
	ID            string
	Ticker        string
	TargetPrice   float64
	Direction     Direction
	Status        Status
	OneTime       bool
	CreatedAt     time.Time
	LastCheckedAt *time.Time
	TriggeredAt   *time.Time
}

// AlertParams are the inputs of NewAlert. Zero values of the optional fields
// mean "generate" (ID, CreatedAt) or "default" (Status is active).
type AlertParams struct {
	Ticker        string
	TargetPrice   float64
	Direction     string
	OneTime       bool
	ID            string
	Status        string
	CreatedAt     time.Time
	LastCheckedAt *time.Time
	TriggeredAt   *time.Time
}

// NewAlert validates params and builds an alert.
func NewAlert(p AlertParams) (*Alert, error) {
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	if ticker == "" {
		return nil, &ValidationError{Field: "ticker", Reason: "must not be empty"}
	}

	direction, err := ParseDirection(p.Direction)
	if err != nil {
		return nil, err
	}

	if err := validateTargetPrice(p.TargetPrice); err != nil {
		return nil, err
	}

	status := StatusActive
	if p.Status != "" {
		if status, err = ParseStatus(p.Status); err != nil {
			return nil, err
		}
	}

	a := &Alert{
		ID:            p.ID,
		Ticker:        ticker,
		TargetPrice:   p.TargetPrice,
		Direction:     direction,
		Status:        status,
		OneTime:       p.OneTime,
		CreatedAt:     p.CreatedAt,
		LastCheckedAt: p.LastCheckedAt,
		TriggeredAt:   p.TriggeredAt,
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.TimeNow()
	}
	if a.ID == "" {
		a.ID = NewAlertID(ticker)
	}
	return a, nil
}

// AlertChanges lists the user-editable fields of an alert. Nil fields are left
// unchanged.
type AlertChanges struct {
	TargetPrice *float64
	Direction   *string
	OneTime     *bool
}

// Apply validates and applies changes. ID and CreatedAt never change. On
// error the alert is left untouched.
func (a *Alert) Apply(c AlertChanges) error {
	next := *a
	if c.TargetPrice != nil {
		if err := validateTargetPrice(*c.TargetPrice); err != nil {
			return err
		}
		next.TargetPrice = *c.TargetPrice
	}
	if c.Direction != nil {
		d, err := ParseDirection(*c.Direction)
		if err != nil {
			return err
		}
		next.Direction = d
	}
	if c.OneTime != nil {
		next.OneTime = *c.OneTime
	}
	*a = next
	return nil
}

// Enable makes the alert eligible for evaluation again.
func (a *Alert) Enable() { a.Status = StatusActive }

// Disable stops the alert from being evaluated.
func (a *Alert) Disable() { a.Status = StatusDisabled }

// IsActive reports whether the monitor should evaluate the alert.
func (a *Alert) IsActive() bool { return a.Status == StatusActive }

func (a *Alert) String() string {
	return fmt.Sprintf("%s | %s %s $%.2f | status=%s | one_time=%t",
		a.ID, a.Ticker, a.Direction, a.TargetPrice, a.Status, a.OneTime)
}

func validateTargetPrice(price float64) error {
	// NaN fails every comparison, so test for the valid range instead of <= 0.
	if !(price > 0) || math.IsInf(price, 1) {
		return &ValidationError{Field: "target_price", Reason: "must be a positive value"}
	}
	return nil
}
