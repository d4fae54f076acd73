// Package metrics exposes the agent's operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts resolved product scans per register.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posagent_scans_total",
		Help: "Barcode scans that resolved to a product.",
	}, []string{"register"})

	// ScanMissesTotal counts scans that matched no catalog product.
	ScanMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posagent_scan_misses_total",
		Help: "Barcode scans that resolved to no product.",
	}, []string{"register"})

	// SubmissionsTotal counts checkout attempts by terminal outcome.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posagent_submissions_total",
		Help: "Bill submissions by register and outcome (succeeded, ambiguous, rejected).",
	}, []string{"register", "outcome"})

	// CatalogRefreshesTotal counts catalog snapshot replacements.
	CatalogRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posagent_catalog_refreshes_total",
		Help: "Catalog snapshot refreshes.",
	})
)
