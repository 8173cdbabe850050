package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/source"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	now := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	costs := model.NewProjectCosts("alpha")
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	costs.Add(model.CostRecord{Provider: model.AWS, Service: "Amazon EC2", AccountID: "111", Amount: decimal.NewFromInt(6000), Date: day})
	costs.Add(model.CostRecord{Provider: model.AWS, Service: "Amazon S3", AccountID: "222", Amount: decimal.RequireFromString("1000.456"), Date: day})
	costs.Add(model.CostRecord{Provider: model.Azure, Service: "Storage <hot>", AccountID: "sub-1", Amount: decimal.RequireFromString("2999.544"), Date: day})

	return Input{
		Project: config.Project{
			Name:       "alpha",
			Budget:     decimal.NewFromInt(50000),
			Recipients: []string{"team@example.com"},
		},
		Costs: costs,
		Names: map[model.Provider]map[string]string{
			model.AWS:   {"111": "prod"},
			model.Azure: {"sub-1": "Azure Prod"},
		},
		Period:        source.MonthToDate(now),
		Now:           now,
		Subject:       "simple cost notification",
		CurrencyLabel: "JPY",
		TopN:          2,
	}
}

func TestBuild(t *testing.T) {
	rep := Build(sampleInput(t))

	assert.Equal(t, "simple cost notification - alpha", rep.Subject)
	assert.Equal(t, "simple cost notification - alpha (33% of month elapsed)", rep.Heading)
	assert.True(t, rep.Total.Equal(decimal.NewFromInt(10000)))
	assert.True(t, rep.Budget.Forecast.Equal(decimal.NewFromInt(30000)))
	assert.True(t, rep.Budget.Remaining.Equal(decimal.NewFromInt(20000)))
	assert.EqualValues(t, 20, rep.Budget.UsedPercent)

	require.Len(t, rep.ProviderTotals, 2)
	assert.Equal(t, model.AWS, rep.ProviderTotals[0].Provider)
	assert.True(t, rep.ProviderTotals[1].Amount.Equal(decimal.RequireFromString("2999.544")))

	require.Len(t, rep.TopServices, 2)
	assert.Equal(t, "Amazon EC2", rep.TopServices[0].Name)
	assert.Equal(t, "Storage <hot>", rep.TopServices[1].Name)

	require.Len(t, rep.Accounts, 3)
	assert.Equal(t, "prod", rep.Accounts[0].Name)
	assert.Equal(t, "222", rep.Accounts[2].Name)

	assert.Len(t, rep.Daily, 10, "series stops at today")
	assert.Equal(t, 3, rep.Records)
	assert.Equal(t, []string{"team@example.com"}, rep.Recipients)
}

func TestBuild_EmptyProject(t *testing.T) {
	in := sampleInput(t)
	in.Costs = nil
	in.Project.Budget = decimal.Zero
	in.TopN = 0

	rep := Build(in)
	assert.True(t, rep.Total.IsZero())
	assert.False(t, rep.Budget.HasBudget)
	assert.Empty(t, rep.TopServices)
	assert.Empty(t, rep.Accounts)
	assert.Equal(t, 0, rep.TopN)
}

func TestRenderHTML(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	in := sampleInput(t)
	in.Warnings = []string{"azure: fetch failed"}
	html, err := r.HTML(Build(in))
	require.NoError(t, err)

	for _, want := range []string{
		"<h1>simple cost notification - alpha (33% of month elapsed)</h1>",
		"10,000 JPY",
		"Forecast for this month (30 days)",
		"Budget (50,000) - Forecast (30,000) = 20,000 JPY",
		"<p>20 %</p>",
		"<td>Azure Prod</td>",
		"6,000.00 JPY",
		"Warning: azure: fetch failed",
		"Top 2 services by spend",
	} {
		assert.Contains(t, html, want)
	}
	assert.Contains(t, html, "Storage &lt;hot&gt;", "service names are escaped")
	assert.False(t, strings.Contains(html, "Amazon S3</td>"), "only the top 2 services are listed")
}

func TestRenderHTML_TopServicesShowProvider(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	in := sampleInput(t)
	day := time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)
	in.Costs = model.NewProjectCosts("alpha")
	in.Costs.Add(model.CostRecord{Provider: model.AWS, Service: "Storage", AccountID: "111", Amount: decimal.NewFromInt(700), Date: day})
	in.Costs.Add(model.CostRecord{Provider: model.Azure, Service: "Storage", AccountID: "sub-1", Amount: decimal.NewFromInt(300), Date: day})

	html, err := r.HTML(Build(in))
	require.NoError(t, err)

	assert.Regexp(t, `(?s)<td>1</td>\s*<td>AWS</td>\s*<td>Storage</td>`, html)
	assert.Regexp(t, `(?s)<td>2</td>\s*<td>Azure</td>\s*<td>Storage</td>`, html)
}

func TestRenderHTML_NoBudget(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	in := sampleInput(t)
	in.Project.Budget = decimal.Zero
	html, err := r.HTML(Build(in))
	require.NoError(t, err)
	assert.Contains(t, html, "No budget set")
	assert.Contains(t, html, "= -30,000 JPY")
}
