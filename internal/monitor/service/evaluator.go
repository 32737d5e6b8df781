package service

import (
	"fmt"
	"time"

	"stock-price-alert/internal/entity"

	"github.com/shopspring/decimal"
)

// ShouldFire reports whether price crosses the alert's threshold. The
// boundary is inclusive on both sides.
func ShouldFire(a entity.Alert, price float64) bool {
	switch a.Direction {
	case entity.DirectionAbove:
		return price >= a.TargetPrice
	case entity.DirectionBelow:
		return price <= a.TargetPrice
	}
	return false
}

// ApplyFiring records that the alert fired at now. One-time alerts leave the
// active set.
func ApplyFiring(a *entity.Alert, now time.Time) {
	a.LastCheckedAt = &now
	a.TriggeredAt = &now
	if a.OneTime {
		a.Status = entity.StatusTriggered
	}
}

// AlertNotification renders the title and body of a fired alert.
func AlertNotification(a entity.Alert, price float64) (title, message string) {
	title = fmt.Sprintf("Price alert for %s", a.Ticker)
	message = fmt.Sprintf("%s %s %s; current price %s",
		a.Ticker, a.Direction,
		decimal.NewFromFloat(a.TargetPrice).StringFixed(2),
		decimal.NewFromFloat(price).StringFixed(2))
	return title, message
}
