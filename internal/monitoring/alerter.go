package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertArtifactFailureRate AlertType = "artifact_failure_rate"
	AlertRunFailed           AlertType = "run_failed"
	AlertStaleRun            AlertType = "stale_run"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.AlertsConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given alerts config.
func NewAlerter(cfg config.AlertsConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Check artifact failure rate. Below 5 attempted artifacts one bad
	// recording dominates the rate, so stay quiet.
	attempted := snap.ArtifactsSucceeded + snap.ArtifactsFailed + snap.ArtifactsCopied
	if attempted >= 5 && snap.ArtifactFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertArtifactFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Artifact failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempted in last %dh)",
				snap.ArtifactFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.ArtifactsFailed, attempted, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.ArtifactFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.ArtifactsFailed,
				"attempted":    attempted,
			},
			Timestamp: now,
		})
	}

	// Check failed runs.
	if snap.RunsFailed > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertRunFailed,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d sync run(s) failed in last %dh",
				snap.RunsFailed, snap.LookbackHours,
			),
			Details: map[string]any{
				"failed_runs": snap.RunsFailed,
				"total_runs":  snap.RunsTotal,
			},
			Timestamp: now,
		})
	}

	// Check for a run stuck in running. A worker crash between CreateRun
	// and CompleteRun leaves the row running forever.
	staleAfter := time.Duration(a.cfg.StaleRunHours) * time.Hour
	if staleAfter > 0 && snap.OldestRunningStart != nil {
		age := now.Sub(*snap.OldestRunningStart)
		if age > staleAfter {
			alerts = append(alerts, Alert{
				Type:     AlertStaleRun,
				Severity: "high",
				Message: fmt.Sprintf(
					"A sync run has been running for %s (threshold %dh)",
					age.Round(time.Minute), a.cfg.StaleRunHours,
				),
				Details: map[string]any{
					"started_at":    snap.OldestRunningStart,
					"running_runs":  snap.RunsRunning,
					"threshold_hrs": a.cfg.StaleRunHours,
				},
				Timestamp: now,
			})
		}
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
