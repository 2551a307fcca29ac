package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo registers a build_info gauge on reg, set to 1 with the
// version and commit labels.
func RegisterBuildInfo(reg prometheus.Registerer, version, commit string) {
	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bankmbt_build_info",
			Help: "bankmbt build information.",
		},
		[]string{"version", "commit"},
	)
	reg.MustRegister(buildInfo)
	buildInfo.WithLabelValues(version, commit).Set(1)
}
