package coordinator

//
// Copyright (c) 2019 ARM Limited.
//
// SPDX-License-Identifier: MIT
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	changePlans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topology",
		Subsystem: "coordinator",
		Name:      "change_plans_total",
		Help:      "Change plans by outcome",
	}, []string{"outcome"})

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topology",
		Subsystem: "coordinator",
		Name:      "operations_total",
		Help:      "Executed operations by type and outcome",
	}, []string{"type", "outcome"})

	operationApplyDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topology",
		Subsystem: "coordinator",
		Name:      "operation_apply_duration_seconds",
		Help:      "Time spent in the executor call of an operation",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
	}, []string{"type"})

	pendingOperations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "topology",
		Subsystem: "coordinator",
		Name:      "pending_operations",
		Help:      "Operations left in the attached change plan",
	})
)

// RegisterMetrics adds the coordinator collectors to the registerer.
// Collectors that are already registered are skipped.
func RegisterMetrics(registerer prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{changePlans, operations, operationApplyDuration, pendingOperations} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	return nil
}
