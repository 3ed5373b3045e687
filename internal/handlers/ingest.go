package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/internal/hub"
	"github.com/wnusair/miami-MTI/pkg/models"
)

// Ingest accepts a single reading or a batch. Invalid items in a batch are
// skipped; a body with nothing valid is rejected. The batch commits as one
// transaction, then the dashboard room is notified that the feed and KPI
// panels are stale.
func (h *Handlers) Ingest(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	items, err := decodeIngestBody(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	now := time.Now().UTC()
	readings := make([]models.Reading, 0, len(items))
	for _, item := range items {
		if item.SensorName == "" || item.Value == nil {
			h.logger.WithField("sensor", item.SensorName).Debug("Skipping invalid ingest item")
			continue
		}

		r := models.Reading{
			Timestamp:  now,
			SensorName: item.SensorName,
			Value:      *item.Value,
			Unit:       item.Unit,
			Status:     item.Status,
		}
		if item.Timestamp != nil {
			r.Timestamp = item.Timestamp.UTC()
		}
		if r.Status == "" {
			r.Status = h.classifier.Classify(r.SensorName, r.Value)
		}
		readings = append(readings, r)
	}

	if len(readings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid readings in request"})
		return
	}

	stored, err := h.readings.InsertBatch(c.Request.Context(), readings)
	if err != nil {
		h.logger.WithError(err).Error("Failed to store readings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store readings"})
		return
	}

	if h.metrics != nil {
		for _, r := range stored {
			h.metrics.IngestedReadings.WithLabelValues(r.SensorName, r.Status).Inc()
		}
	}
	if h.cache != nil {
		h.cache.SetLatest(c.Request.Context(), stored)
	}

	h.hub.Notify(hub.DefaultRoom, "sensor_data")
	h.hub.Notify(hub.DefaultRoom, "stats")

	c.JSON(http.StatusCreated, models.IngestResponse{
		Created: len(stored),
		Data:    stored,
	})
}

// decodeIngestBody accepts either one reading object or an array of them.
func decodeIngestBody(body []byte) ([]models.IngestReading, error) {
	var batch []models.IngestReading
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}

	var single models.IngestReading
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []models.IngestReading{single}, nil
}
