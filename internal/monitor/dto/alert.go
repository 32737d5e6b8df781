package dto

import (
	"time"

	"stock-price-alert/internal/entity"
)

// ListAlertsParam filters alert listings. An empty Status or "all" matches
// every status; an empty Ticker matches every ticker.
type ListAlertsParam struct {
	Status string `query:"status"`
	Ticker string `query:"ticker"`
}

// CreateAlertRequest is the DTO for creating a new alert.
type CreateAlertRequest struct {
	Ticker      string  `json:"ticker"`
	TargetPrice float64 `json:"target_price"`
	AlertType   string  `json:"alert_type"`
	// OneTime defaults to true when omitted.
	OneTime *bool `json:"one_time"`
}

// UpdateAlertRequest is the DTO for editing an alert. Omitted fields are left
// unchanged.
type UpdateAlertRequest struct {
	TargetPrice *float64 `json:"target_price"`
	AlertType   *string  `json:"alert_type"`
	OneTime     *bool    `json:"one_time"`
}

// AlertResponse is the DTO for API responses containing alert details.
type AlertResponse struct {
	AlertID     string     `json:"alert_id"`
	Ticker      string     `json:"ticker"`
	TargetPrice float64    `json:"target_price"`
	AlertType   string     `json:"alert_type"`
	Status      string     `json:"status"`
	OneTime     bool       `json:"one_time"`
	CreatedAt   time.Time  `json:"created_at"`
	LastChecked *time.Time `json:"last_checked"`
	TriggeredAt *time.Time `json:"triggered_at"`
}

// NewAlertResponse maps an entity to its API representation.
func NewAlertResponse(a entity.Alert) AlertResponse {
	return AlertResponse{
		AlertID:     a.ID,
		Ticker:      a.Ticker,
		TargetPrice: a.TargetPrice,
		AlertType:   string(a.Direction),
		Status:      string(a.Status),
		OneTime:     a.OneTime,
		CreatedAt:   a.CreatedAt,
		LastChecked: a.LastCheckedAt,
		TriggeredAt: a.TriggeredAt,
	}
}
