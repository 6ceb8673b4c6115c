package controllers

import (
	"approachlog/internal/backup"
	"approachlog/internal/services"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	service   services.ApproachServiceInterface
	targets   *backup.Targets
	startTime time.Time
}

type backupHealth struct {
	Primary string   `json:"primary"`
	Enabled bool     `json:"enabled"`
	Mirrors []string `json:"mirrors,omitempty"`
}

type healthResponse struct {
	Status        string        `json:"status"`
	Uptime        string        `json:"uptime"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Records       int           `json:"records"`
	Backup        *backupHealth `json:"backup,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Health reports "ok" when the record store answers and "degraded" with 503
// when it does not. Backup state is informational only.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        uptime.Truncate(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Backup:        hc.backupState(),
	}
	status := http.StatusOK

	count, err := hc.service.Count(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	resp.Records = count

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (hc *HealthController) backupState() *backupHealth {
	if hc.targets == nil {
		return nil
	}
	state := &backupHealth{
		Primary: hc.targets.Primary.Name(),
		Enabled: hc.targets.Primary.Supported(),
	}
	for _, mirror := range hc.targets.Mirrors {
		state.Mirrors = append(state.Mirrors, mirror.Name())
	}
	return state
}

func NewHealthController(service services.ApproachServiceInterface, targets *backup.Targets) *HealthController {
	return &HealthController{
		service:   service,
		targets:   targets,
		startTime: time.Now(),
	}
}
