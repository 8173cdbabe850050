package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id string, started time.Time, total int64) Run {
	return Run{
		ID:           id,
		StartedAt:    started,
		FinishedAt:   started.Add(3 * time.Second),
		Status:       StatusOK,
		AWSRecords:   12,
		AzureRecords: 4,
		Currency:     "JPY",
		Projects: []ProjectTotal{
			{
				Project:     "alpha",
				AWS:         decimal.NewFromInt(total - 100),
				Azure:       decimal.NewFromInt(100),
				Total:       decimal.NewFromInt(total),
				Forecast:    decimal.RequireFromString("3000.5"),
				Budget:      decimal.NewFromInt(5000),
				UsedPercent: 20,
				Recipients:  2,
				Sent:        true,
			},
			{Project: "common", Total: decimal.Zero},
		},
	}
}

func TestRecordAndRecentRuns(t *testing.T) {
	s := openTest(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if err := s.RecordRun(sampleRun("run-1", base, 1000)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	failed := sampleRun("run-2", base.Add(24*time.Hour), 1500)
	failed.Status = StatusFailed
	failed.Error = "boom"
	failed.DryRun = true
	if err := s.RecordRun(failed); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || !runs[0].DryRun || runs[0].Error != "boom" {
		t.Fatalf("newest run = %+v", runs[0])
	}
	if runs[1].Duration() != 3*time.Second {
		t.Fatalf("Duration() = %v, want 3s", runs[1].Duration())
	}
	if len(runs[1].Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(runs[1].Projects))
	}
	alpha := runs[1].Projects[0]
	if alpha.Project != "alpha" || !alpha.Total.Equal(decimal.NewFromInt(1000)) ||
		!alpha.Forecast.Equal(decimal.RequireFromString("3000.5")) || !alpha.Sent {
		t.Fatalf("alpha totals = %+v", alpha)
	}

	n, err := s.RunCount()
	if err != nil || n != 2 {
		t.Fatalf("RunCount() = %d, %v; want 2", n, err)
	}
}

func TestRecordRun_ReplacesSameID(t *testing.T) {
	s := openTest(t)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordRun(sampleRun("run-1", start, 100)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	again := sampleRun("run-1", start, 200)
	again.Projects = again.Projects[:1]
	if err := s.RecordRun(again); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || len(runs[0].Projects) != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if !runs[0].Projects[0].Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("total = %s, want 200", runs[0].Projects[0].Total)
	}
}

func TestProjectHistory(t *testing.T) {
	s := openTest(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := sampleRun(
			"run-"+string(rune('a'+i)),
			base.AddDate(0, 0, i),
			int64(1000*(i+1)),
		)
		if err := s.RecordRun(run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	hist, err := s.ProjectHistory("alpha", 2)
	if err != nil {
		t.Fatalf("ProjectHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len = %d, want 2", len(hist))
	}
	if hist[0].RunID != "run-c" || !hist[0].Total.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("newest snapshot = %+v", hist[0])
	}
	if !hist[0].StartedAt.Equal(base.AddDate(0, 0, 2)) {
		t.Fatalf("StartedAt = %v", hist[0].StartedAt)
	}

	none, err := s.ProjectHistory("missing", 5)
	if err != nil || len(none) != 0 {
		t.Fatalf("ProjectHistory(missing) = %v, %v", none, err)
	}
}
