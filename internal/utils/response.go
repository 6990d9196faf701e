package utils

import "time"

// HealthReport is the body served by GET /health.
type HealthReport struct {
	Service string    `json:"service"`
	Status  string    `json:"status"`
	Uptime  string    `json:"uptime"`
	Time    time.Time `json:"time"`
}

func NewHealthReport(service string, started time.Time) HealthReport {
	return HealthReport{
		Service: service,
		Status:  "ok",
		Uptime:  time.Since(started).Round(time.Second).String(),
		Time:    time.Now().UTC(),
	}
}
