package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempts counts authentication outcomes by operation (login, authorize)
// and result.
var Attempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication and authorization attempts by outcome",
	},
	[]string{"operation", "outcome"},
)

// Outcome label values.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalid         = "invalid_credentials"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
)
