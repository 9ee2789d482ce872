package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

type health struct {
	info    Info
	started time.Time
	now     func() time.Time
}

func newHealth(info Info, started time.Time) *health {
	return &health{info: info, started: started, now: time.Now}
}

type memoryStats struct {
	Alloc     uint64 `json:"alloc"`
	HeapInuse uint64 `json:"heapInuse"`
	Sys       uint64 `json:"sys"`
	NumGC     uint32 `json:"numGC"`
}

func (h *health) handleRoot(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"name":      h.info.Name,
		"status":    "running",
		"version":   h.info.Version,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *health) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"uptime":     h.now().Sub(h.started).Seconds(),
		"goroutines": runtime.NumGoroutine(),
		"memory": memoryStats{
			Alloc:     mem.Alloc,
			HeapInuse: mem.HeapInuse,
			Sys:       mem.Sys,
			NumGC:     mem.NumGC,
		},
	})
}
