package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg, "gini")
	require.NoError(t, err)

	c.TermCreated()
	c.TermCreated()
	c.TermReused()
	c.SymbolDeclared()
	c.ObserveCheck("sat", 2*time.Millisecond)
	c.ObserveCheck("unsat", time.Millisecond)
	c.ObserveCheck("sat", time.Millisecond)
	c.SetContextLevel(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				if lp.GetName() == ResultLabel {
					key += "/" + lp.GetValue()
				}
				if lp.GetName() == BackendLabel {
					assert.Equal(t, "gini", lp.GetValue())
				}
			}
			switch {
			case m.GetCounter() != nil:
				got[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				got[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				got[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"smtswitch_terms_created_total":   2,
		"smtswitch_terms_reused_total":    1,
		"smtswitch_symbols_total":         1,
		"smtswitch_check_sat_total/sat":   2,
		"smtswitch_check_sat_total/unsat": 1,
		"smtswitch_check_sat_seconds":     3,
		"smtswitch_context_level":         3,
	}, got)
}

func TestDuplicateRegistration(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	_, err := NewCollectors(reg, "gini")
	require.NoError(t, err)
	_, err = NewCollectors(reg, "gini")
	assert.Error(t, err)
}

func TestNilCollectors(t *testing.T) {
	t.Parallel()
	var c *Collectors
	c.TermCreated()
	c.TermReused()
	c.SymbolDeclared()
	c.ObserveCheck("sat", time.Second)
	c.SetContextLevel(1)

	c, err := NewCollectors(nil, "gini")
	require.NoError(t, err)
	c.ObserveCheck("unknown", time.Second)
}
