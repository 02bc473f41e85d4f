// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/httputil"
	"github.com/shirou/gopsutil/v4/process"
)

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, &httputil.ErrorResponse{Error: "method not allowed"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.Status(r.Context()))
}

// Status returns the process and tracker status. Process statistics that
// cannot be collected are left as zero.
func (s *Server) Status(ctx context.Context) *api.StatusResponse {
	now := time.Now()
	resp := &api.StatusResponse{
		PID:           os.Getpid(),
		StartedAt:     s.startedAt,
		Uptime:        now.Sub(s.startedAt).Truncate(time.Second).String(),
		GoVersion:     runtime.Version(),
		NumTracked:    len(s.tracker.ListTracked()),
		NumGoroutines: runtime.NumGoroutine(),
	}

	p, err := process.NewProcessWithContext(ctx, int32(resp.PID))
	if err != nil {
		return resp
	}
	if v, err := p.CPUPercentWithContext(ctx); err == nil {
		resp.CPUPercent = v
	}
	if v, err := p.MemoryInfoWithContext(ctx); err == nil && v != nil {
		resp.RSSBytes = v.RSS
	}
	if v, err := p.MemoryPercentWithContext(ctx); err == nil {
		resp.MemoryPercent = v
	}
	if v, err := p.NumThreadsWithContext(ctx); err == nil {
		resp.NumThreads = v
	}
	if v, err := p.NumFDsWithContext(ctx); err == nil {
		resp.NumFDs = v
	}
	return resp
}
