package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

var storageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "topology",
	Subsystem: "storage",
	Name:      "errors_total",
	Help:      "Storage driver errors by operation and database path",
}, []string{"operation", "path"})

func prometheusRecordStorageError(operation string, path string) {
	storageErrors.WithLabelValues(operation, path).Inc()
}

// RegisterMetrics adds the storage collectors to the registerer. Registering
// twice is not an error.
func RegisterMetrics(registerer prometheus.Registerer) error {
	if err := registerer.Register(storageErrors); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}

	return nil
}
