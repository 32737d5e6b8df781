package entity

import (
	"sync"
	"time"
)

const alertIDLayout = "20060102150405.000000"

var idClock = struct {
	sync.Mutex
	last time.Time
}{}

// NewAlertID returns "<TICKER>_<YYYYMMDDhhmmss><microseconds>". Timestamps
// handed out by the same process are strictly increasing, so two alerts
// created within the same microsecond still get distinct IDs.
func NewAlertID(ticker string) string {
	idClock.Lock()
	now := time.Now().Truncate(time.Microsecond)
	if !now.After(idClock.last) {
		now = idClock.last.Add(time.Microsecond)
	}
	idClock.last = now
	idClock.Unlock()

	stamp := now.Format(alertIDLayout)
	return ticker + "_" + stamp[:14] + stamp[15:]
}
