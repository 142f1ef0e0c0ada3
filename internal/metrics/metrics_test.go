package metrics_test

import (
	"testing"
	"time"

	"github.com/chapool/subflow-agent/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCompleted(t *testing.T) {
	m := metrics.New()

	m.SignCompleted("ok", false, 10*time.Millisecond)
	m.SignCompleted("ok", true, time.Millisecond)
	m.SignCompleted("UNAUTHORIZED", false, time.Millisecond)
	m.NonceReset()
	m.ChainID(545)

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				key := f.GetName()
				for _, l := range metric.GetLabel() {
					key += "/" + l.GetValue()
				}
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["subflow_agent_sign_requests_total/ok"])
	assert.Equal(t, 1.0, values["subflow_agent_sign_requests_total/UNAUTHORIZED"])
	assert.Equal(t, 1.0, values["subflow_agent_sign_replayed_total"])
	assert.Equal(t, 1.0, values["subflow_agent_nonce_reservations_reset_total"])
	assert.Equal(t, 545.0, values["subflow_agent_chain_id"])
}
