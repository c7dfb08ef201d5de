// Package genmetrics exposes Prometheus metrics for report generation:
// per-status section counts, report totals, token and word usage, and
// section duration distribution.
package genmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// Metrics holds the generation metric set. One instance is shared by
// every generator wired to the same registry.
type Metrics struct {
	reportsTotal    *prometheus.CounterVec
	sectionsTotal   *prometheus.CounterVec
	tokensUsed      prometheus.Counter
	narrativeWords  prometheus.Counter
	sectionDuration prometheus.Histogram
}

// Options configures metric registration.
type Options struct {
	// Registerer receives the metric set. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Namespace prefixes every metric name. Defaults to "riskforge".
	Namespace string
}

// New registers the generation metrics. Registration conflicts
// surface as an error so double-wiring fails loudly.
func New(opts Options) (*Metrics, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Namespace == "" {
		opts.Namespace = "riskforge"
	}

	m := &Metrics{
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "reports_generated_total",
			Help:      "Reports generated, by recipe.",
		}, []string{"recipe"}),
		sectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "sections_total",
			Help:      "Section outcomes, by status (success, error, skipped).",
		}, []string{"status"}),
		tokensUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "narrative_tokens_total",
			Help:      "Tokens consumed by narrative generation.",
		}),
		narrativeWords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "narrative_words_total",
			Help:      "Words delivered in generated narratives.",
		}),
		sectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "section_duration_seconds",
			Help:      "Wall time spent generating one section.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.reportsTotal, m.sectionsTotal, m.tokensUsed, m.narrativeWords, m.sectionDuration,
	} {
		if err := opts.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveSection records one section outcome and its duration.
func (m *Metrics) ObserveSection(status riskmodel.SectionStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sectionsTotal.WithLabelValues(string(status)).Inc()
	m.sectionDuration.Observe(elapsed.Seconds())
}

// ObserveReport records a completed report and its aggregate usage.
func (m *Metrics) ObserveReport(recipeID string, tokens, words int) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(recipeID).Inc()
	m.tokensUsed.Add(float64(tokens))
	m.narrativeWords.Add(float64(words))
}
