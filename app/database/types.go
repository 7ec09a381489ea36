package database

import (
	"time"
)

type Resolution struct {
	ID          string
	RequestID   string // X-Request-ID of the originating request, not unique
	Path        string
	Outcome     string // render, redirect, not_found
	Destination string // redirect target, empty otherwise
	Referrer    string
	Tracking    bool
	Host        string
	CreatedAt   time.Time
}

type ResolutionStats struct {
	Total     int
	ByOutcome map[string]int
	Oldest    *time.Time
	Newest    *time.Time
}
