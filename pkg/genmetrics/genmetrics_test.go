package genmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

func TestObserveSectionAndReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(Options{Registerer: reg})
	require.NoError(t, err)

	m.ObserveSection(riskmodel.SectionSuccess, 120*time.Millisecond)
	m.ObserveSection(riskmodel.SectionSuccess, 80*time.Millisecond)
	m.ObserveSection(riskmodel.SectionSkipped, 0)
	m.ObserveReport("facility-standard", 1500, 620)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sectionsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sectionsTotal.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues("facility-standard")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.tokensUsed))
	assert.Equal(t, 620.0, testutil.ToFloat64(m.narrativeWords))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(Options{Registerer: reg})
	require.NoError(t, err)
	_, err = New(Options{Registerer: reg})
	assert.Error(t, err)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSection(riskmodel.SectionError, time.Second)
	m.ObserveReport("r", 1, 1)
}
