// Command simulator feeds the dashboard with generated telemetry so the
// panels and the websocket fan-out can be exercised without hardware.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

type sensor struct {
	name string
	unit string
	min  float64
	max  float64
	// drift bounds the step between consecutive samples so traces look
	// like a moving robot rather than white noise
	drift float64
}

var catalogue = []sensor{
	{name: "Arm_Servo_1", unit: "deg", min: 0, max: 180, drift: 12},
	{name: "Arm_Servo_2", unit: "deg", min: 0, max: 180, drift: 12},
	{name: "Motor_Temp", unit: "C", min: 20, max: 85, drift: 1.5},
	{name: "Motor_RPM", unit: "RPM", min: 0, max: 5000, drift: 250},
	{name: "Battery_Voltage", unit: "V", min: 10, max: 14, drift: 0.1},
	{name: "System_Load", unit: "%", min: 0, max: 100, drift: 5},
}

func main() {
	var (
		url      = flag.String("url", "http://localhost:18035/api/ingest", "ingest endpoint")
		interval = flag.Duration("interval", 2*time.Second, "time between batches")
		jitter   = flag.Duration("jitter", 500*time.Millisecond, "random extra delay per batch")
		count    = flag.Int("count", 0, "number of batches to send, 0 means run until interrupted")
		seed     = flag.Int64("seed", 0, "random seed, 0 means time-based")
	)
	flag.Parse()

	logger := logging.NewLoggerWithService("simulator")

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start each trace mid-range
	values := make([]float64, len(catalogue))
	for i, s := range catalogue {
		values[i] = s.min + (s.max-s.min)*0.5
	}

	client := &http.Client{Timeout: 10 * time.Second}
	sent := 0

	logger.WithFields(logging.Fields{
		"url":      *url,
		"interval": interval.String(),
		"seed":     *seed,
	}).Info("Simulator started")

	for {
		batch := make([]models.IngestReading, len(catalogue))
		for i, s := range catalogue {
			values[i] += (rng.Float64()*2 - 1) * s.drift
			if values[i] < s.min {
				values[i] = s.min
			}
			if values[i] > s.max {
				values[i] = s.max
			}
			v := values[i]
			batch[i] = models.IngestReading{
				SensorName: s.name,
				Value:      &v,
				Unit:       s.unit,
			}
		}

		if err := post(ctx, client, *url, batch); err != nil {
			logger.WithError(err).Warn("Failed to post batch")
		} else {
			sent++
			logger.WithField("batch", sent).Debug("Batch sent")
		}

		if *count > 0 && sent >= *count {
			logger.WithField("batches", sent).Info("Simulator finished")
			return
		}

		delay := *interval
		if *jitter > 0 {
			delay += time.Duration(rng.Int63n(int64(*jitter)))
		}
		select {
		case <-ctx.Done():
			logger.WithField("batches", sent).Info("Simulator stopped")
			return
		case <-time.After(delay):
		}
	}
}

func post(ctx context.Context, client *http.Client, url string, batch []models.IngestReading) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("ingest returned %s", resp.Status)
	}
	return nil
}
