package azurecost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/source"
)

type fakeUsage struct {
	resp   armcostmanagement.QueryClientUsageResponse
	err    error
	scopes []string
	defs   []armcostmanagement.QueryDefinition
}

func (f *fakeUsage) Usage(_ context.Context, scope string, def armcostmanagement.QueryDefinition, _ *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error) {
	f.scopes = append(f.scopes, scope)
	f.defs = append(f.defs, def)
	return f.resp, f.err
}

func usageResponse(cols []string, rows [][]any, next string) armcostmanagement.QueryClientUsageResponse {
	var columns []*armcostmanagement.QueryColumn
	for _, c := range cols {
		columns = append(columns, &armcostmanagement.QueryColumn{Name: to.Ptr(c)})
	}
	var resp armcostmanagement.QueryClientUsageResponse
	resp.Properties = &armcostmanagement.QueryProperties{Columns: columns, Rows: rows}
	if next != "" {
		resp.Properties.NextLink = to.Ptr(next)
	}
	return resp
}

func creds(ids ...string) []config.AzureCredential {
	var out []config.AzureCredential
	for _, id := range ids {
		out = append(out, config.AzureCredential{TenantID: "t", ClientID: "c", ClientSecret: "s", SubscriptionID: id, SubscriptionName: "name-" + id})
	}
	return out
}

func TestFetch_ByColumnName(t *testing.T) {
	fake := &fakeUsage{resp: usageResponse(
		[]string{"UsageDate", "ServiceName", "Cost", "SubscriptionId", "SubscriptionName", "Currency"},
		[][]any{
			{float64(20250302), "Storage", 120.5, "sub-1", "Prod", "JPY"},
			{float64(20250303), "Virtual Machines", "80", "sub-1", "", "jpy"},
		},
		"",
	)}
	factory := func(config.AzureCredential) (UsageAPI, error) { return fake, nil }

	c := New(creds("sub-1"), factory, nil)
	period := source.MonthToDate(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	got, err := c.Fetch(context.Background(), period)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.Azure, got[0].Provider)
	assert.Equal(t, "Storage", got[0].Service)
	assert.Equal(t, "sub-1", got[0].AccountID)
	assert.Equal(t, "Prod", got[0].AccountName)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), got[0].Date)

	assert.Equal(t, "name-sub-1", got[1].AccountName, "falls back to credential name")
	assert.Equal(t, "JPY", got[1].Currency)

	require.Equal(t, []string{"/subscriptions/sub-1"}, fake.scopes)
	def := fake.defs[0]
	assert.Equal(t, armcostmanagement.ExportTypeActualCost, *def.Type)
	assert.Equal(t, armcostmanagement.TimeframeTypeMonthToDate, *def.Timeframe)
	assert.Len(t, def.Dataset.Grouping, 3)
}

func TestFetch_PositionalFallbackAndAllSubscriptions(t *testing.T) {
	fake := &fakeUsage{resp: usageResponse(nil, [][]any{
		{10.0, float64(20250301), "sub-x", "X", "Bandwidth", "JPY"},
	}, "")}
	factory := func(config.AzureCredential) (UsageAPI, error) { return fake, nil }

	got, err := New(creds("a", "b"), factory, nil).Fetch(context.Background(), source.MonthToDate(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"/subscriptions/a", "/subscriptions/b"}, fake.scopes)
	assert.Equal(t, "Bandwidth", got[0].Service)
	assert.Equal(t, "sub-x", got[0].AccountID)
}

func TestFetch_NextLinkWarns(t *testing.T) {
	log, hook := test.NewNullLogger()
	fake := &fakeUsage{resp: usageResponse(nil, nil, "https://next")}
	factory := func(config.AzureCredential) (UsageAPI, error) { return fake, nil }

	got, err := New(creds("a"), factory, log).Fetch(context.Background(), source.MonthToDate(time.Now()))
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFetch_Errors(t *testing.T) {
	boom := errors.New("boom")
	factory := func(config.AzureCredential) (UsageAPI, error) { return &fakeUsage{err: boom}, nil }
	_, err := New(creds("a"), factory, nil).Fetch(context.Background(), source.MonthToDate(time.Now()))
	assert.ErrorIs(t, err, boom)

	bad := &fakeUsage{resp: usageResponse(nil, [][]any{{true, 1.0, "sub"}}, "")}
	factory = func(config.AzureCredential) (UsageAPI, error) { return bad, nil }
	_, err = New(creds("a"), factory, nil).Fetch(context.Background(), source.MonthToDate(time.Now()))
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestSubscriptionNames(t *testing.T) {
	c := New(append(creds("a"), config.AzureCredential{SubscriptionID: "b"}), nil, nil)
	assert.Equal(t, map[string]string{"a": "name-a"}, c.SubscriptionNames())
}
