// Package classify assigns a status to a reading from its value and sensor
// identity. Thresholds are a pluggable policy: the ingest path takes a
// Classifier, and the default one scores a value by its normalized position
// inside the sensor's operating range.
package classify

import (
	"github.com/wnusair/miami-MTI/pkg/models"
)

// Classifier maps a sensor and value to a reading status.
type Classifier interface {
	Classify(sensorName string, value float64) string
}

// Range is a sensor's expected operating range.
type Range struct {
	Min float64
	Max float64
}

// Normalized positions at which a value stops being OK.
const (
	warningThreshold = 0.90
	errorThreshold   = 0.95
)

// ThresholdClassifier scores values against per-sensor ranges. Sensors
// without a configured range are always OK.
type ThresholdClassifier struct {
	ranges map[string]Range
}

// DefaultRanges is the stock sensor catalogue.
var DefaultRanges = map[string]Range{
	"Arm_Servo_1":     {Min: 0, Max: 180},
	"Arm_Servo_2":     {Min: 0, Max: 180},
	"Motor_Temp":      {Min: 20, Max: 85},
	"Motor_RPM":       {Min: 0, Max: 5000},
	"Battery_Voltage": {Min: 10, Max: 14},
	"System_Load":     {Min: 0, Max: 100},
}

// NewThresholdClassifier builds a classifier over the given ranges; nil
// means DefaultRanges.
func NewThresholdClassifier(ranges map[string]Range) *ThresholdClassifier {
	if ranges == nil {
		ranges = DefaultRanges
	}
	return &ThresholdClassifier{ranges: ranges}
}

// Classify returns OK, WARNING or ERROR for a value. Values outside the
// configured range clamp to its ends, so an over-range value is ERROR rather
// than out-of-scale.
func (c *ThresholdClassifier) Classify(sensorName string, value float64) string {
	r, ok := c.ranges[sensorName]
	if !ok || r.Max <= r.Min {
		return models.StatusOK
	}

	normalized := (value - r.Min) / (r.Max - r.Min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	switch {
	case normalized >= errorThreshold:
		return models.StatusError
	case normalized >= warningThreshold:
		return models.StatusWarning
	default:
		return models.StatusOK
	}
}
