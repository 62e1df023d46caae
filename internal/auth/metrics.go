package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendGauge is a singleton for the active backend gauge vec.
	backendGauge *prometheus.GaugeVec //nolint:gochecknoglobals
	// loadingGauge is a singleton for the loading gauge.
	loadingGauge prometheus.Gauge //nolint:gochecknoglobals
	// transitions is a singleton for the state change counter.
	transitions prometheus.Counter //nolint:gochecknoglobals
)

// RegisterMetrics creates the Prometheus collectors for the reconciled
// authentication state. Until it runs, state changes are not observed;
// calling it twice keeps the first registration.
func RegisterMetrics() {
	if backendGauge != nil {
		return
	}

	backendGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_backend_active",
			Help: "Which backend currently provides the signed-in actor, at most one is 1.",
		},
		[]string{"mode"},
	)

	loadingGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_state_loading",
			Help: "Whether any applicable backend is still resolving.",
		},
	)

	transitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_state_changes_total",
			Help: "Number of published authentication state changes.",
		},
	)
}

func observeState(st State) {
	if backendGauge == nil {
		return
	}

	for _, kind := range []BackendKind{BackendInteractive, BackendAppOnly, BackendHosted} {
		var active float64
		if st.IsAuthenticated && st.AuthMode == kind {
			active = 1
		}

		backendGauge.WithLabelValues(string(kind)).Set(active)
	}

	var loading float64
	if st.Loading {
		loading = 1
	}

	loadingGauge.Set(loading)
	transitions.Inc()
}
