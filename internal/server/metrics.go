// metrics.go - In-process counters exposed via the health endpoint.
package server

import (
	"sync"
	"sync/atomic"
)

// Metrics tracks coarse request and security counters. Cheap enough to
// update on every request; read by the health handler.
type Metrics struct {
	requestsTotal  atomic.Int64
	requests4xx    atomic.Int64
	requests5xx    atomic.Int64
	loginFailures  atomic.Int64
	grantsIssued   atomic.Int64
	grantsRedeemed atomic.Int64
	grantsRejected atomic.Int64
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// GetMetrics returns the process-wide metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{}
	})
	return metrics
}

// RecordRequest counts one finished request by status class.
func (m *Metrics) RecordRequest(status int) {
	m.requestsTotal.Add(1)
	switch {
	case status >= 500:
		m.requests5xx.Add(1)
	case status >= 400:
		m.requests4xx.Add(1)
	}
}

// RecordLoginFailure counts one rejected authentication attempt.
func (m *Metrics) RecordLoginFailure() { m.loginFailures.Add(1) }

// RecordGrantIssued counts one minted download grant.
func (m *Metrics) RecordGrantIssued() { m.grantsIssued.Add(1) }

// RecordGrantRedeemed counts one successful redemption.
func (m *Metrics) RecordGrantRedeemed() { m.grantsRedeemed.Add(1) }

// RecordGrantRejected counts one rejected redemption.
func (m *Metrics) RecordGrantRejected() { m.grantsRejected.Add(1) }

// Snapshot returns current counter values for reporting.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":  m.requestsTotal.Load(),
		"requests_4xx":    m.requests4xx.Load(),
		"requests_5xx":    m.requests5xx.Load(),
		"login_failures":  m.loginFailures.Load(),
		"grants_issued":   m.grantsIssued.Load(),
		"grants_redeemed": m.grantsRedeemed.Load(),
		"grants_rejected": m.grantsRejected.Load(),
	}
}
