package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/model"
)

func TestRecorder_ObserveProject(t *testing.T) {
	r := NewRecorder()
	costs := model.NewProjectCosts("alpha")
	costs.Add(model.CostRecord{Provider: model.AWS, Service: "EC2", AccountID: "1", Amount: decimal.NewFromInt(1500)})
	costs.Add(model.CostRecord{Provider: model.Azure, Service: "VM", AccountID: "s", Amount: decimal.NewFromInt(500)})
	stats := model.BudgetStats{
		Budget:    decimal.NewFromInt(4000),
		HasBudget: true,
		Spend:     decimal.NewFromInt(2000),
		Forecast:  decimal.NewFromInt(6000),
	}

	r.ObserveProject("alpha", costs, stats)

	if got := testutil.ToFloat64(r.spend.WithLabelValues("alpha", "aws")); got != 1500 {
		t.Errorf("aws spend = %v, want 1500", got)
	}
	if got := testutil.ToFloat64(r.spend.WithLabelValues("alpha", "azure")); got != 500 {
		t.Errorf("azure spend = %v, want 500", got)
	}
	if got := testutil.ToFloat64(r.forecast.WithLabelValues("alpha")); got != 6000 {
		t.Errorf("forecast = %v, want 6000", got)
	}
	if got := testutil.ToFloat64(r.budgetRatio.WithLabelValues("alpha")); got != 0.5 {
		t.Errorf("budget ratio = %v, want 0.5", got)
	}
}

func TestRecorder_NoBudgetSkipsRatio(t *testing.T) {
	r := NewRecorder()
	r.ObserveProject("beta", model.NewProjectCosts("beta"), model.BudgetStats{})
	if n := testutil.CollectAndCount(r.budgetRatio); n != 0 {
		t.Errorf("budget ratio series = %d, want 0", n)
	}
}

func TestRecorder_EmailsAndFinish(t *testing.T) {
	r := NewRecorder()
	r.EmailSent()
	r.EmailSent()
	r.EmailFailed()
	r.ObserveRecords(model.AWS, 42)

	start := time.Unix(1_700_000_000, 0)
	r.Finish(start, start.Add(2500*time.Millisecond), true)

	if got := testutil.ToFloat64(r.emails.WithLabelValues("sent")); got != 2 {
		t.Errorf("sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.emails.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.records.WithLabelValues("aws")); got != 42 {
		t.Errorf("records = %v, want 42", got)
	}
	if got := testutil.ToFloat64(r.duration); got != 2.5 {
		t.Errorf("duration = %v, want 2.5", got)
	}
	if got := testutil.ToFloat64(r.lastSuccess); got != 1_700_000_002 {
		t.Errorf("last success = %v", got)
	}

	expected := `
# HELP costnotify_emails_total Report emails by result
# TYPE costnotify_emails_total counter
costnotify_emails_total{result="failed"} 1
costnotify_emails_total{result="sent"} 2
`
	if err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "costnotify_emails_total"); err != nil {
		t.Error(err)
	}
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.EmailSent()
	if err := r.Push(context.Background(), srv.URL, "costnotify-test"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotPath != "/metrics/job/costnotify-test" {
		t.Errorf("push path = %q", gotPath)
	}

	if err := r.Push(context.Background(), "", ""); err != nil {
		t.Errorf("empty url should be a no-op, got %v", err)
	}
}

type pushedGroup struct {
	method string
	path   string
	body   string
}

func newGateway(t *testing.T) (*httptest.Server, *[]pushedGroup) {
	t.Helper()
	var mu sync.Mutex
	var got []pushedGroup
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		got = append(got, pushedGroup{method: req.Method, path: req.URL.Path, body: string(body)})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestPush_FailedRunKeepsLastSuccess(t *testing.T) {
	srv, got := newGateway(t)

	start := time.Unix(1_700_000_000, 0)
	r := NewRecorder()
	r.EmailFailed()
	r.Finish(start, start.Add(time.Second), false)
	if err := r.Push(context.Background(), srv.URL, "costnotify"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("pushes = %d, want 1", len(*got))
	}
	run := (*got)[0]
	if run.method != http.MethodPut || run.path != "/metrics/job/costnotify" {
		t.Errorf("run push = %s %s", run.method, run.path)
	}
	if strings.Contains(run.body, "last_success_timestamp_seconds") {
		t.Error("failed run must not push the last-success gauge")
	}
	if !strings.Contains(run.body, "costnotify_emails_total") {
		t.Error("run group is missing the email counter")
	}
}

func TestPush_SuccessfulRunPushesLastSuccessGroup(t *testing.T) {
	srv, got := newGateway(t)

	start := time.Unix(1_700_000_000, 0)
	r := NewRecorder()
	r.Finish(start, start.Add(time.Second), true)
	if err := r.Push(context.Background(), srv.URL, "costnotify"); err != nil {
		t.Fatalf("Push: %v", err)
	}

	if len(*got) != 2 {
		t.Fatalf("pushes = %d, want 2", len(*got))
	}
	if strings.Contains((*got)[0].body, "last_success_timestamp_seconds") {
		t.Error("run group must not carry the last-success gauge")
	}
	success := (*got)[1]
	if success.path != "/metrics/job/costnotify/outcome/success" {
		t.Errorf("success push path = %q", success.path)
	}
	if !strings.Contains(success.body, "costnotify_last_success_timestamp_seconds") {
		t.Error("success group is missing the last-success gauge")
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(decimal.NewFromInt(1), decimal.Zero); got != 0 {
		t.Errorf("Ratio with zero budget = %v", got)
	}
	if got := Ratio(decimal.NewFromInt(3), decimal.NewFromInt(4)); got != 0.75 {
		t.Errorf("Ratio = %v, want 0.75", got)
	}
}
