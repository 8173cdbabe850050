// Package job runs one cost report: fetch, attribute, render, send, record.
package job

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/mail"
	"github.com/theirongolddev/costnotify/internal/metrics"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/params"
	"github.com/theirongolddev/costnotify/internal/pipeline"
	"github.com/theirongolddev/costnotify/internal/report"
	"github.com/theirongolddev/costnotify/internal/source"
	"github.com/theirongolddev/costnotify/internal/store"
)

var (
	// ErrPartialSend is returned when at least one report could not be delivered.
	ErrPartialSend = errors.New("job: some reports were not sent")
	// ErrUnknownProject is returned when a project filter names no project.
	ErrUnknownProject = errors.New("job: unknown project")
)

// ParamResolver resolves the project map and Azure credentials.
type ParamResolver interface {
	Resolve(ctx context.Context, cfg config.Config) (*params.Resolved, error)
}

// AWSSource fetches AWS costs and account names.
type AWSSource interface {
	source.Fetcher
	AccountNames(ctx context.Context) (map[string]string, error)
}

// AzureSource fetches Azure costs for a set of subscriptions.
type AzureSource interface {
	source.Fetcher
	SubscriptionNames() map[string]string
}

// HistoryStore records finished runs.
type HistoryStore interface {
	RecordRun(r store.Run) error
}

// Deps are the collaborators of a Job. AWS, NewAzure, Store and Metrics may be nil.
type Deps struct {
	Params   ParamResolver
	AWS      AWSSource
	NewAzure func(creds []config.AzureCredential) AzureSource
	Sender   mail.Sender
	Store    HistoryStore
	Metrics  *metrics.Recorder
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Options control one Run.
type Options struct {
	DryRun bool
	// Project restricts sending to one project. Empty sends every project.
	Project string
}

// Result is the outcome of Collect and Run.
type Result struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Period        source.Period
	Currency      string
	Projects      config.ProjectMap
	ProjectSource string
	Costs         map[string]*model.ProjectCosts
	Reports       []report.Report
	Records       map[model.Provider]int
	Warnings      []string
	Sent          []string
	Failed        []string
}

// Report returns the report of the named project.
func (r *Result) Report(project string) (report.Report, bool) {
	for _, rep := range r.Reports {
		if rep.Project == project {
			return rep, true
		}
	}
	return report.Report{}, false
}

// Job runs cost reports for one configuration.
type Job struct {
	cfg  config.Config
	deps Deps
	log  logrus.FieldLogger

	rendererOnce sync.Once
	renderer     *report.Renderer
	rendererErr  error
}

// New creates a Job.
func New(cfg config.Config, deps Deps) *Job {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Job{cfg: cfg, deps: deps, log: deps.Log}
}

// Config returns the configuration the job runs with.
func (j *Job) Config() config.Config {
	return j.cfg
}

type fetchResult struct {
	provider model.Provider
	records  []model.CostRecord
	err      error
}

// Collect fetches every provider and builds one report per project, sorted by name.
func (j *Job) Collect(ctx context.Context) (*Result, error) {
	now := j.deps.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Period:    source.MonthToDate(now),
		Currency:  j.cfg.General.ReportCurrency,
		Records:   make(map[model.Provider]int),
	}
	log := j.log.WithField("run_id", res.RunID)

	if j.deps.Params == nil {
		return res, errors.New("job: no parameter resolver")
	}
	resolved, err := j.deps.Params.Resolve(ctx, j.cfg)
	if err != nil {
		return res, fmt.Errorf("resolving parameters: %w", err)
	}
	res.Projects = resolved.Projects
	res.ProjectSource = resolved.ProjectSource

	rates, err := config.NewRateTable(j.cfg.General.ReportCurrency, j.cfg.Rates)
	if err != nil {
		return res, err
	}

	var fetchers []source.Fetcher
	if j.deps.AWS != nil && !j.cfg.AWS.Disabled {
		fetchers = append(fetchers, j.deps.AWS)
	}
	var azure AzureSource
	if j.cfg.Azure.Enabled && j.deps.NewAzure != nil && len(resolved.AzureCredentials) > 0 {
		azure = j.deps.NewAzure(resolved.AzureCredentials)
		fetchers = append(fetchers, azure)
	}
	if len(fetchers) == 0 {
		return res, errors.New("job: no cost source is enabled")
	}

	results := make([]fetchResult, len(fetchers))
	accountNames := map[string]string{}

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fetchers {
		g.Go(func() error {
			records, err := f.Fetch(gctx, res.Period)
			results[i] = fetchResult{provider: f.Provider(), records: records, err: err}
			if err != nil && !j.cfg.General.AllowPartial {
				return fmt.Errorf("fetching %s costs: %w", f.Provider().Label(), err)
			}
			return nil
		})
	}
	if j.deps.AWS != nil && !j.cfg.AWS.Disabled && j.cfg.AWS.LookupAccountNames {
		g.Go(func() error {
			names, err := j.deps.AWS.AccountNames(gctx)
			if err != nil {
				log.WithError(err).Warn("could not list organization accounts; showing account IDs")
			}
			accountNames = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	var records []model.CostRecord
	for _, fr := range results {
		if fr.err != nil {
			log.WithError(fr.err).WithField("provider", fr.provider).Warn("provider fetch failed; continuing without it")
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s costs are missing: %v", fr.provider.Label(), fr.err))
			continue
		}
		res.Records[fr.provider] = len(fr.records)
		if j.deps.Metrics != nil {
			j.deps.Metrics.ObserveRecords(fr.provider, len(fr.records))
		}
		records = append(records, fr.records...)
	}

	converted, err := pipeline.Convert(records, rates, now)
	if err != nil {
		return res, err
	}
	res.Costs = pipeline.Attribute(converted, res.Projects)

	names := map[model.Provider]map[string]string{
		model.AWS:   accountNames,
		model.Azure: subscriptionNames(converted, azure),
	}
	if names[model.AWS] == nil {
		names[model.AWS] = map[string]string{}
	}

	projectNames := make([]string, 0, len(res.Costs))
	for name := range res.Costs {
		projectNames = append(projectNames, name)
	}
	sort.Strings(projectNames)

	for _, name := range projectNames {
		project, ok := res.Projects.Lookup(name)
		if !ok {
			project = config.Project{Name: name}
		}
		res.Reports = append(res.Reports, report.Build(report.Input{
			Project:       project,
			Costs:         res.Costs[name],
			Names:         names,
			Period:        res.Period,
			Now:           now,
			Subject:       j.cfg.General.Subject,
			CurrencyLabel: j.cfg.General.Label(),
			TopN:          j.cfg.General.TopN,
			ForecastDays:  j.cfg.General.ForecastDays,
			Warnings:      res.Warnings,
		}))
	}

	log.WithFields(logrus.Fields{
		"projects": len(res.Reports),
		"records":  len(converted),
	}).Info("collected costs")
	return res, nil
}

// subscriptionNames prefers the names given with the credentials, then the
// names reported in the cost rows.
func subscriptionNames(records []model.CostRecord, azure AzureSource) map[string]string {
	names := make(map[string]string)
	for _, r := range records {
		if r.Provider == model.Azure && r.AccountName != "" {
			names[r.AccountID] = r.AccountName
		}
	}
	if azure != nil {
		for id, name := range azure.SubscriptionNames() {
			names[id] = name
		}
	}
	return names
}

// Run collects, renders and sends every report, then records the run.
func (j *Job) Run(ctx context.Context, opts Options) (*Result, error) {
	res, err := j.Collect(ctx)
	log := j.log.WithField("run_id", res.RunID)
	if err != nil {
		j.finish(ctx, res, opts, err)
		return res, err
	}

	if opts.Project != "" {
		if _, ok := res.Report(opts.Project); !ok {
			err := fmt.Errorf("%w: %q", ErrUnknownProject, opts.Project)
			j.finish(ctx, res, opts, err)
			return res, err
		}
	}
	if !opts.DryRun && j.cfg.Mail.Sender == "" {
		err := errors.New("mail.sender (SENDER_EMAIL) is not set")
		j.finish(ctx, res, opts, err)
		return res, err
	}
	if j.deps.Sender == nil {
		err := errors.New("job: no mail sender")
		j.finish(ctx, res, opts, err)
		return res, err
	}

	renderer, err := j.Renderer()
	if err != nil {
		j.finish(ctx, res, opts, err)
		return res, err
	}

	var sendErrs []error
	for _, rep := range res.Reports {
		if opts.Project != "" && rep.Project != opts.Project {
			continue
		}
		plog := log.WithField("project", rep.Project)

		html, err := renderer.HTML(rep)
		if err != nil {
			sendErrs = append(sendErrs, err)
			res.Failed = append(res.Failed, rep.Project)
			continue
		}

		msg := mail.Message{
			Project: rep.Project,
			From:    j.cfg.Mail.Sender,
			To:      mail.Recipients(rep.Recipients, j.cfg.Mail.Recipients, j.cfg.Mail.Sender),
			Subject: rep.Subject,
			HTML:    html,
		}
		if err := j.deps.Sender.Send(ctx, msg); err != nil {
			plog.WithError(err).Error("sending report failed")
			sendErrs = append(sendErrs, fmt.Errorf("%s: %w", rep.Project, err))
			res.Failed = append(res.Failed, rep.Project)
			if j.deps.Metrics != nil {
				j.deps.Metrics.EmailFailed()
			}
			continue
		}
		res.Sent = append(res.Sent, rep.Project)
		if j.deps.Metrics != nil {
			j.deps.Metrics.EmailSent()
		}
	}

	if len(sendErrs) > 0 {
		err = fmt.Errorf("%w: %w", ErrPartialSend, errors.Join(sendErrs...))
	}
	j.finish(ctx, res, opts, err)
	return res, err
}

// Renderer returns the shared HTML renderer.
func (j *Job) Renderer() (*report.Renderer, error) {
	j.rendererOnce.Do(func() {
		j.renderer, j.rendererErr = report.NewRenderer()
	})
	return j.renderer, j.rendererErr
}

// finish records history and metrics. Failures here are logged, not returned.
func (j *Job) finish(ctx context.Context, res *Result, opts Options, runErr error) {
	res.FinishedAt = j.deps.Now()
	log := j.log.WithField("run_id", res.RunID)

	status := store.StatusOK
	switch {
	case runErr != nil && len(res.Sent) == 0:
		status = store.StatusFailed
	case runErr != nil || len(res.Warnings) > 0:
		status = store.StatusPartial
	}

	if j.deps.Metrics != nil {
		for _, rep := range res.Reports {
			j.deps.Metrics.ObserveProject(rep.Project, res.Costs[rep.Project], rep.Budget)
		}
		j.deps.Metrics.Finish(res.StartedAt, res.FinishedAt, status == store.StatusOK)
		if err := j.deps.Metrics.Push(ctx, j.cfg.Metrics.PushgatewayURL, j.cfg.Metrics.Job); err != nil {
			log.WithError(err).Warn("pushing metrics failed")
		}
	}

	if j.deps.Store != nil {
		if err := j.deps.Store.RecordRun(historyRun(res, opts, status, runErr)); err != nil {
			log.WithError(err).Warn("recording run history failed")
		}
	}

	entry := log.WithFields(logrus.Fields{
		"status":   status,
		"sent":     len(res.Sent),
		"failed":   len(res.Failed),
		"duration": res.FinishedAt.Sub(res.StartedAt).String(),
	})
	if runErr != nil {
		entry.WithError(runErr).Error("run finished with errors")
		return
	}
	entry.Info("run finished")
}

func historyRun(res *Result, opts Options, status string, runErr error) store.Run {
	run := store.Run{
		ID:           res.RunID,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		DryRun:       opts.DryRun,
		Status:       status,
		AWSRecords:   res.Records[model.AWS],
		AzureRecords: res.Records[model.Azure],
		Currency:     res.Currency,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	sent := make(map[string]bool, len(res.Sent))
	for _, p := range res.Sent {
		sent[p] = true
	}
	for _, rep := range res.Reports {
		costs := res.Costs[rep.Project]
		if costs == nil {
			costs = model.NewProjectCosts(rep.Project)
		}
		run.Projects = append(run.Projects, store.ProjectTotal{
			Project:     rep.Project,
			AWS:         costs.ProviderTotal(model.AWS),
			Azure:       costs.ProviderTotal(model.Azure),
			Total:       rep.Total,
			Forecast:    rep.Budget.Forecast,
			Budget:      rep.Budget.Budget,
			UsedPercent: rep.Budget.UsedPercent,
			Recipients:  len(rep.Recipients),
			Sent:        sent[rep.Project],
		})
	}
	return run
}
