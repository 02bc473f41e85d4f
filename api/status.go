// Copyright (c) 2025 BVK Chaitanya

package api

import "time"

const (
	StatusPath = "/ledgerwatch/status"

	// EventsPath is the websocket endpoint streaming broadcast events. An
	// optional "account" query parameter filters events for one account.
	EventsPath = "/ledgerwatch/events"
)

type StatusResponse struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
	Uptime    string    `json:"uptime"`
	GoVersion string    `json:"goVersion"`

	NumTracked    int `json:"numTracked"`
	NumGoroutines int `json:"numGoroutines"`

	CPUPercent    float64 `json:"cpuPercent"`
	RSSBytes      uint64  `json:"rssBytes"`
	NumFDs        int32   `json:"numFds,omitempty"`
	NumThreads    int32   `json:"numThreads,omitempty"`
	MemoryPercent float32 `json:"memoryPercent"`
}
