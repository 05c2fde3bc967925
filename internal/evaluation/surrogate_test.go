package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turbojetRequest() *Request {
	return &Request{
		Components: []ComponentSpec{
			{Function: "intake", ID: "inlet"},
			{Function: "high_compression", ID: "hpc", Attributes: map[string]float64{"pr": 12, "stages": 10}},
			{Function: "combustion", ID: "burner", Options: map[string]string{"fuel": "jet-a"}},
			{Function: "high_expansion", ID: "hpt", Attributes: map[string]float64{"eff": 0.9}},
			{Function: "core_exhaust", ID: "conv_nozzle"},
			{Function: "power_transmission", ID: "single_shaft", Attributes: map[string]float64{"rpm": 12000}},
		},
		Connections: []ConnectionSpec{
			{From: "inlet.out", To: "hpc.in", Flow: "air"},
			{From: "hpc.out", To: "burner.in", Flow: "air"},
			{From: "burner.out", To: "hpt.in", Flow: "air"},
			{From: "hpt.out", To: "conv_nozzle.in", Flow: "air"},
			{From: "hpc.shaft", To: "single_shaft.spool", Flow: "mech"},
			{From: "hpt.shaft", To: "single_shaft.spool", Flow: "mech"},
		},
		Conditions: Conditions{Thrust: 150e3, TurbineInletTemp: 1450},
	}
}

// turbofanRequest adds a fan, splitter, LPT, and bypass nozzle on a second
// shaft.
func turbofanRequest(bpr float64) *Request {
	req := turbojetRequest()
	req.Components[5] = ComponentSpec{Function: "power_transmission", ID: "two_shaft",
		Attributes: map[string]float64{"rpm_hp": 14000, "rpm_lp": 4000}}
	req.Components = append(req.Components,
		ComponentSpec{Function: "bypass", ID: "fan", Attributes: map[string]float64{"fpr": 1.5}},
		ComponentSpec{Function: "flow_split", ID: "splitter", Attributes: map[string]float64{"bpr": bpr}},
		ComponentSpec{Function: "low_expansion", ID: "lpt", Attributes: map[string]float64{"eff": 0.9}},
		ComponentSpec{Function: "bypass_exhaust", ID: "bypass_nozzle"},
	)
	req.Connections = append(req.Connections,
		ConnectionSpec{From: "fan.out", To: "splitter.in", Flow: "air"},
		ConnectionSpec{From: "splitter.bypass_out", To: "bypass_nozzle.in", Flow: "air"},
		ConnectionSpec{From: "hpt.out", To: "lpt.in", Flow: "air"},
	)
	return req
}

func TestSurrogateDeterministic(t *testing.T) {
	s := NewSurrogate()

	r1, err := s.Analyze(context.Background(), turbojetRequest())
	require.NoError(t, err)
	r2, err := s.Analyze(context.Background(), turbojetRequest())
	require.NoError(t, err)

	require.True(t, r1.Converged)
	assert.Equal(t, r1.Metrics, r2.Metrics)
	for name, v := range r1.Metrics {
		assert.Greater(t, v, 0.0, "metric %s", name)
	}
}

func TestSurrogateBypassTrends(t *testing.T) {
	s := NewSurrogate()

	low, err := s.Analyze(context.Background(), turbofanRequest(3))
	require.NoError(t, err)
	require.True(t, low.Converged)
	high, err := s.Analyze(context.Background(), turbofanRequest(9))
	require.NoError(t, err)
	require.True(t, high.Converged)

	// Higher bypass: better fuel burn, quieter, slower jet, heavier, fatter.
	assert.Less(t, high.Metrics[MetricTSFC], low.Metrics[MetricTSFC])
	assert.Less(t, high.Metrics[MetricNoise], low.Metrics[MetricNoise])
	assert.Less(t, high.Metrics[MetricJetMach], low.Metrics[MetricJetMach])
	assert.Greater(t, high.Metrics[MetricWeight], low.Metrics[MetricWeight])
	assert.Greater(t, high.Metrics[MetricDiameter], low.Metrics[MetricDiameter])
}

func TestSurrogateFuelEffect(t *testing.T) {
	s := NewSurrogate()

	kerosene, err := s.Analyze(context.Background(), turbojetRequest())
	require.NoError(t, err)

	hydrogen := turbojetRequest()
	hydrogen.Components[2].Options["fuel"] = "h2"
	h2, err := s.Analyze(context.Background(), hydrogen)
	require.NoError(t, err)

	assert.Less(t, h2.Metrics[MetricTSFC], kerosene.Metrics[MetricTSFC])
	assert.Less(t, h2.Metrics[MetricNOx], kerosene.Metrics[MetricNOx])
}

func TestSurrogateNonConvergence(t *testing.T) {
	s := NewSurrogate()

	// Overall pressure ratio beyond the balance limit.
	req := turbojetRequest()
	req.Components[1].Attributes["pr"] = 60
	resp, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Converged)
	assert.Contains(t, resp.Reason, "pressure balance")

	// High bypass on a single spool.
	req = turbofanRequest(8)
	req.Components[5] = ComponentSpec{Function: "power_transmission", ID: "single_shaft"}
	resp, err = s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Converged)
	assert.Contains(t, resp.Reason, "single spool")
}

func TestSurrogateRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSurrogate().Analyze(ctx, turbojetRequest())
	require.Error(t, err)
}
