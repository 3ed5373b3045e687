package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/internal/export"
	"github.com/wnusair/miami-MTI/pkg/auth"
	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

const (
	defaultQueryHours = 1
	defaultQueryLimit = 100
	maxQueryLimit     = 1000

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// GetSensorData returns readings for the live feed chart, oldest-first.
// hours and limit fall back to defaults when absent or unparseable.
func (h *Handlers) GetSensorData(c *gin.Context) {
	sensorName := c.Query("sensor_name")
	hours := intQuery(c, "hours", defaultQueryHours)
	limit := intQuery(c, "limit", defaultQueryLimit)
	if limit < 1 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}
	if hours < 1 {
		hours = defaultQueryHours
	}

	readings, err := h.readings.Query(c.Request.Context(), sensorName, hours, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query readings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query readings"})
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	c.JSON(http.StatusOK, readings)
}

// GetLatestReadings returns the most recent reading per sensor for the
// status panel. Served from the Redis mirror when one is configured and
// warm, from Postgres otherwise.
func (h *Handlers) GetLatestReadings(c *gin.Context) {
	if h.cache != nil {
		readings, err := h.cache.Latest(c.Request.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Cache read failed, falling back to store")
		} else if len(readings) > 0 {
			c.JSON(http.StatusOK, readings)
			return
		}
	}

	readings, err := h.readings.Latest(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to query latest readings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query readings"})
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	c.JSON(http.StatusOK, readings)
}

// GetStats returns the KPI summary for a trailing window.
func (h *Handlers) GetStats(c *gin.Context) {
	hours := intQuery(c, "hours", defaultQueryHours)
	if hours < 1 {
		hours = defaultQueryHours
	}

	stats, err := h.readings.Stats(c.Request.Context(), hours)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Export streams the selected date range as an XLSX attachment. Unparseable
// bounds are ignored rather than rejected; a date-only end bound covers that
// whole day.
func (h *Handlers) Export(c *gin.Context) {
	start, _ := parseDateBound(c.Query("start_date"), false)
	end, endDateOnly := parseDateBound(c.Query("end_date"), true)
	if endDateOnly {
		end = end.AddDate(0, 0, 1)
	}

	readings, err := h.readings.Range(c.Request.Context(), start, end)
	if err != nil {
		h.exportOutcome("error")
		h.logger.WithError(err).Error("Failed to query export range")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query readings"})
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, readings); err != nil {
		h.exportOutcome("error")
		h.logger.WithError(err).Error("Failed to build export workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
		return
	}

	h.exportOutcome("success")
	h.logger.WithFields(logging.Fields{
		"rows":     len(readings),
		"username": c.GetString(auth.CtxUsername),
	}).Info("Export generated")

	filename := export.Filename(time.Now().UTC())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handlers) exportOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.ExportsTotal.WithLabelValues(outcome).Inc()
	}
}

// intQuery parses an integer query parameter, falling back on absence or
// garbage.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// parseDateBound accepts RFC3339 or a bare date. The boolean reports a
// date-only match so the caller can widen an end bound to the full day.
func parseDateBound(raw string, wantDateOnly bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), wantDateOnly
	}
	return time.Time{}, false
}
