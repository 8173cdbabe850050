// Package azurecost fetches Azure spend from the Cost Management query API.
package azurecost

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/source"
)

// Positional layout of a row when column names are unavailable.
const (
	colCost = iota
	colDate
	colSubscriptionID
	colSubscriptionName
	colService
	colCurrency
)

// ErrMalformedRow is returned when a result row cannot be decoded.
var ErrMalformedRow = errors.New("azurecost: malformed row")

// UsageAPI is the subset of the Cost Management query client used here.
type UsageAPI interface {
	Usage(ctx context.Context, scope string, parameters armcostmanagement.QueryDefinition, options *armcostmanagement.QueryClientUsageOptions) (armcostmanagement.QueryClientUsageResponse, error)
}

// Factory builds a query client authenticated as one credential.
type Factory func(cred config.AzureCredential) (UsageAPI, error)

// DefaultFactory authenticates with a client secret.
func DefaultFactory(cred config.AzureCredential) (UsageAPI, error) {
	tc, err := azidentity.NewClientSecretCredential(cred.TenantID, cred.ClientID, cred.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("azurecost: credential for %s: %w", cred.SubscriptionID, err)
	}
	client, err := armcostmanagement.NewQueryClient(tc, nil)
	if err != nil {
		return nil, fmt.Errorf("azurecost: query client for %s: %w", cred.SubscriptionID, err)
	}
	return client, nil
}

// Client fetches Azure cost records for every configured subscription.
type Client struct {
	creds   []config.AzureCredential
	factory Factory
	log     logrus.FieldLogger
}

// New creates a client. A nil factory uses DefaultFactory.
func New(creds []config.AzureCredential, factory Factory, log logrus.FieldLogger) *Client {
	if factory == nil {
		factory = DefaultFactory
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		creds:   creds,
		factory: factory,
		log:     log.WithField("provider", model.Azure),
	}
}

// Provider implements source.Fetcher.
func (c *Client) Provider() model.Provider { return model.Azure }

// SubscriptionNames maps subscription IDs to the names given in the credentials.
func (c *Client) SubscriptionNames() map[string]string {
	names := make(map[string]string, len(c.creds))
	for _, cred := range c.creds {
		if cred.SubscriptionName != "" {
			names[cred.SubscriptionID] = cred.SubscriptionName
		}
	}
	return names
}

// Fetch queries month-to-date actual cost for every subscription. The query
// API always covers the current month, so only the period's end is used to
// drop rows dated after it.
func (c *Client) Fetch(ctx context.Context, period source.Period) ([]model.CostRecord, error) {
	var records []model.CostRecord
	for _, cred := range c.creds {
		api, err := c.factory(cred)
		if err != nil {
			return nil, err
		}

		scope := "/subscriptions/" + cred.SubscriptionID
		resp, err := api.Usage(ctx, scope, monthToDateQuery(), nil)
		if err != nil {
			return nil, fmt.Errorf("azurecost: query %s: %w", scope, err)
		}

		props := resp.Properties
		if props == nil {
			continue
		}
		if next := deref(props.NextLink); next != "" {
			c.log.WithField("subscription", cred.SubscriptionID).
				Warn("cost query returned more rows than one page; remaining pages are not fetched")
		}

		layout := columnLayout(props.Columns)
		for i, row := range props.Rows {
			rec, err := decodeRow(row, layout)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", scope, i, err)
			}
			if rec.AccountName == "" {
				rec.AccountName = cred.SubscriptionName
			}
			if !rec.Date.IsZero() && !period.End.IsZero() && !rec.Date.Before(period.End) {
				continue
			}
			records = append(records, rec)
		}
		c.log.WithFields(logrus.Fields{
			"subscription": cred.SubscriptionID,
			"rows":         len(props.Rows),
		}).Debug("fetched cost management data")
	}
	return records, nil
}

func monthToDateQuery() armcostmanagement.QueryDefinition {
	return armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeActualCost),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeMonthToDate),
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{
				{Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension), Name: to.Ptr("SubscriptionId")},
				{Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension), Name: to.Ptr("SubscriptionName")},
				{Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension), Name: to.Ptr("ServiceName")},
			},
		},
	}
}

type layout struct {
	cost, date, subID, subName, service, currency int
}

func columnLayout(cols []*armcostmanagement.QueryColumn) layout {
	l := layout{
		cost:     colCost,
		date:     colDate,
		subID:    colSubscriptionID,
		subName:  colSubscriptionName,
		service:  colService,
		currency: colCurrency,
	}
	for i, col := range cols {
		if col == nil {
			continue
		}
		switch strings.ToLower(deref(col.Name)) {
		case "cost", "pretaxcost", "totalcost":
			l.cost = i
		case "usagedate":
			l.date = i
		case "subscriptionid":
			l.subID = i
		case "subscriptionname":
			l.subName = i
		case "servicename":
			l.service = i
		case "currency":
			l.currency = i
		}
	}
	return l
}

func decodeRow(row []any, l layout) (model.CostRecord, error) {
	amount, err := decimalAt(row, l.cost)
	if err != nil {
		return model.CostRecord{}, err
	}
	rec := model.CostRecord{
		Provider:    model.Azure,
		Service:     stringAt(row, l.service),
		AccountID:   stringAt(row, l.subID),
		AccountName: stringAt(row, l.subName),
		Amount:      amount,
		Currency:    strings.ToUpper(stringAt(row, l.currency)),
		Date:        dateAt(row, l.date),
	}
	if rec.AccountID == "" {
		return model.CostRecord{}, fmt.Errorf("%w: missing subscription id", ErrMalformedRow)
	}
	return rec, nil
}

func decimalAt(row []any, i int) (decimal.Decimal, error) {
	if i >= len(row) {
		return decimal.Zero, fmt.Errorf("%w: no cost column", ErrMalformedRow)
	}
	switch v := row[i].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: cost %q", ErrMalformedRow, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: cost has type %T", ErrMalformedRow, v)
	}
}

func stringAt(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(row[i])
}

// dateAt decodes UsageDate, which the API returns as a YYYYMMDD number.
func dateAt(row []any, i int) time.Time {
	if i >= len(row) {
		return time.Time{}
	}
	var s string
	switch v := row[i].(type) {
	case float64:
		s = strconv.FormatInt(int64(math.Round(v)), 10)
	case int64:
		s = strconv.FormatInt(v, 10)
	case int:
		s = strconv.Itoa(v)
	case string:
		s = strings.TrimSpace(v)
	default:
		return time.Time{}
	}
	for _, layout := range []string{"20060102", "2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC()
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
