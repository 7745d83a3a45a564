package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intakeSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "contacts",
		Name:      "submissions_total",
		Help:      "Total number of contact submissions broken down by outcome.",
	}, []string{"result"})

	intakeOrganizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "organizations",
		Name:      "resolutions_total",
		Help:      "Total number of organization resolutions broken down by matching step.",
	}, []string{"match"})

	intakeIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "issues",
		Name:      "resolutions_total",
		Help:      "Total number of issue resolutions broken down by hit/miss.",
	}, []string{"result"})
)

func recordSubmission(result string) {
	if result == "" {
		result = "other"
	}
	intakeSubmissions.WithLabelValues(result).Inc()
}

func recordOrganizationResolution(step MatchStep) {
	intakeOrganizations.WithLabelValues(string(step)).Inc()
}

func recordIssueResolution(hit bool) {
	result := "created"
	if hit {
		result = "matched"
	}
	intakeIssues.WithLabelValues(result).Inc()
}
