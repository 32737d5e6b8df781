package common

import "time"

const (
	// RedisKeyLastPrice holds the last fetched price of a ticker.
	RedisKeyLastPrice = "last_price:%s"

	DefaultAlertsFile = "alerts.json"

	DefaultMonitorInterval = 60 * time.Second
	MinMonitorInterval     = 5 * time.Second
)
