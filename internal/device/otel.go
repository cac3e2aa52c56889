package device

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/joypaint/joypaint/internal/device"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
