// Package metrics records batch-run metrics and pushes them to a Prometheus
// Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/model"
)

const (
	namespace = "costnotify"

	successGroupLabel = "outcome"
	successGroupValue = "success"
)

// Recorder holds the metrics of one run.
//
// Metrics:
//   - costnotify_project_spend: month-to-date spend by project and provider
//   - costnotify_project_forecast: forecast month spend by project
//   - costnotify_project_budget_ratio: spend / budget by project
//   - costnotify_records_fetched: cost records fetched by provider
//   - costnotify_emails_total: emails by result (sent, failed)
//   - costnotify_run_duration_seconds: duration of the run
//   - costnotify_last_success_timestamp_seconds: end time of the last successful run
//
// The last-success gauge lives in its own registry and is pushed under a
// separate grouping key, only after a successful run.
type Recorder struct {
	registry        *prometheus.Registry
	successRegistry *prometheus.Registry
	succeeded       bool

	spend       *prometheus.GaugeVec
	forecast    *prometheus.GaugeVec
	budgetRatio *prometheus.GaugeVec
	records     *prometheus.GaugeVec
	emails      *prometheus.CounterVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry:        prometheus.NewRegistry(),
		successRegistry: prometheus.NewRegistry(),
		spend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "project_spend",
			Help:      "Month-to-date spend in the report currency by project and provider",
		}, []string{"project", "provider"}),
		forecast: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "project_forecast",
			Help:      "Forecast month spend in the report currency by project",
		}, []string{"project"}),
		budgetRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "project_budget_ratio",
			Help:      "Month-to-date spend divided by budget by project",
		}, []string{"project"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_fetched",
			Help:      "Cost records fetched by provider",
		}, []string{"provider"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Report emails by result",
		}, []string{"result"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the report run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
	r.registry.MustRegister(r.spend, r.forecast, r.budgetRatio, r.records, r.emails, r.duration)
	r.successRegistry.MustRegister(r.lastSuccess)
	return r
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveProject records the totals of one project.
func (r *Recorder) ObserveProject(project string, costs *model.ProjectCosts, stats model.BudgetStats) {
	for _, p := range model.Providers {
		r.spend.WithLabelValues(project, string(p)).Set(costs.ProviderTotal(p).InexactFloat64())
	}
	r.forecast.WithLabelValues(project).Set(stats.Forecast.InexactFloat64())
	if stats.HasBudget {
		r.budgetRatio.WithLabelValues(project).Set(Ratio(stats.Spend, stats.Budget))
	}
}

// ObserveRecords records how many records a provider returned.
func (r *Recorder) ObserveRecords(p model.Provider, n int) {
	r.records.WithLabelValues(string(p)).Set(float64(n))
}

// EmailSent counts a delivered email.
func (r *Recorder) EmailSent() { r.emails.WithLabelValues("sent").Inc() }

// EmailFailed counts a failed email.
func (r *Recorder) EmailFailed() { r.emails.WithLabelValues("failed").Inc() }

// Finish records the run duration and, on success, the completion time.
func (r *Recorder) Finish(started, finished time.Time, ok bool) {
	r.duration.Set(finished.Sub(started).Seconds())
	if ok {
		r.lastSuccess.Set(float64(finished.Unix()))
		r.succeeded = true
	}
}

// Push sends the metrics to a Pushgateway. An empty url is a no-op.
// The run group is replaced on every push; the last-success group only
// when the run succeeded.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if job == "" {
		job = namespace
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	if !r.succeeded {
		return nil
	}
	err := push.New(url, job).
		Grouping(successGroupLabel, successGroupValue).
		Gatherer(r.successRegistry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing last success to %s: %w", url, err)
	}
	return nil
}

// Ratio returns spend / budget, or 0 without a budget.
func Ratio(spend, budget decimal.Decimal) float64 {
	if !budget.IsPositive() {
		return 0
	}
	return spend.Div(budget).InexactFloat64()
}
