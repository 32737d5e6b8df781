package entity

// AlertModel is the SQL row of an alert. Timestamps keep the same text
// encoding as AlertRecord so both stores read each other's values.
type AlertModel struct {
	AlertID     string  `gorm:"column:alert_id;primaryKey"`
	Position    int     `gorm:"not null;index"`
	Ticker      string  `gorm:"not null"`
	TargetPrice float64 `gorm:"not null"`
	AlertType   string  `gorm:"not null"`
	Status      string  `gorm:"not null"`
	OneTime     bool    `gorm:"not null"`
	Created     string  `gorm:"column:created_at;not null"`
	LastChecked *string `gorm:"column:last_checked"`
	TriggeredAt *string `gorm:"column:triggered_at"`
}

func (AlertModel) TableName() string {
	return "alerts"
}

// ToModel converts the alert to its row at the given position.
func (a *Alert) ToModel(position int) AlertModel {
	rec := a.ToRecord()
	oneTime := true
	if rec.OneTime != nil {
		oneTime = *rec.OneTime
	}
	return AlertModel{
		AlertID:     rec.ID,
		Position:    position,
		Ticker:      rec.Ticker,
		TargetPrice: rec.TargetPrice,
		AlertType:   rec.Direction,
		Status:      rec.Status,
		OneTime:     oneTime,
		Created:     rec.CreatedAt,
		LastChecked: rec.LastChecked,
		TriggeredAt: rec.TriggeredAt,
	}
}

// AlertFromModel validates a row and builds the alert.
func AlertFromModel(m AlertModel) (*Alert, error) {
	oneTime := m.OneTime
	return AlertFromRecord(AlertRecord{
		ID:          m.AlertID,
		Ticker:      m.Ticker,
		TargetPrice: m.TargetPrice,
		Direction:   m.AlertType,
		Status:      m.Status,
		OneTime:     &oneTime,
		CreatedAt:   m.Created,
		LastChecked: m.LastChecked,
		TriggeredAt: m.TriggeredAt,
	})
}
