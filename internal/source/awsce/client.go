// Package awsce fetches AWS spend from Cost Explorer and account names from
// AWS Organizations.
package awsce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/theirongolddev/costnotify/internal/model"
	"github.com/theirongolddev/costnotify/internal/source"
)

const (
	metricNetUnblended = "NetUnblendedCost"
	metricUnblended    = "UnblendedCost"
	defaultCurrency    = "USD"
	// maxPages guards against a token that never empties.
	maxPages = 1000
)

// ErrNoMetric is returned when a group carries neither cost metric.
var ErrNoMetric = errors.New("awsce: group has no cost metric")

// CostAPI is the subset of the Cost Explorer client used here.
type CostAPI interface {
	GetCostAndUsage(ctx context.Context, in *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Client fetches AWS cost records.
type Client struct {
	ce      CostAPI
	org     organizations.ListAccountsAPIClient
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithOrganizations enables account name lookup.
func WithOrganizations(org organizations.ListAccountsAPIClient) Option {
	return func(c *Client) { c.org = org }
}

// WithRequestsPerSecond throttles Cost Explorer calls. rps <= 0 disables throttling.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client over a Cost Explorer API.
func New(ce CostAPI, opts ...Option) *Client {
	c := &Client{
		ce:      ce,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("provider", model.AWS)
	return c
}

// NewFromConfig creates a client with SDK clients built from cfg.
func NewFromConfig(cfg aws.Config, lookupNames bool, opts ...Option) *Client {
	if lookupNames {
		opts = append([]Option{WithOrganizations(organizations.NewFromConfig(cfg))}, opts...)
	}
	return New(costexplorer.NewFromConfig(cfg), opts...)
}

// Provider implements source.Fetcher.
func (c *Client) Provider() model.Provider { return model.AWS }

// Fetch returns one record per (day, service, linked account) in the period.
func (c *Client) Fetch(ctx context.Context, period source.Period) ([]model.CostRecord, error) {
	in := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(period.StartDate()),
			End:   aws.String(period.EndDate()),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{metricUnblended, metricNetUnblended},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("LINKED_ACCOUNT")},
		},
	}

	var records []model.CostRecord
	for page := 0; page < maxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("awsce: waiting for rate limiter: %w", err)
		}
		out, err := c.ce.GetCostAndUsage(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("awsce: get cost and usage: %w", err)
		}

		for _, result := range out.ResultsByTime {
			day := resultDate(result)
			for _, g := range result.Groups {
				rec, err := groupRecord(g, day)
				if err != nil {
					return nil, err
				}
				records = append(records, rec)
			}
		}

		token := aws.ToString(out.NextPageToken)
		if token == "" {
			c.log.WithField("records", len(records)).Debug("fetched cost explorer data")
			return records, nil
		}
		in.NextPageToken = aws.String(token)
	}
	return nil, fmt.Errorf("awsce: more than %d result pages", maxPages)
}

// AccountNames maps account IDs to names via Organizations ListAccounts.
// It returns an empty map when no Organizations client is configured.
func (c *Client) AccountNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if c.org == nil {
		return names, nil
	}

	p := organizations.NewListAccountsPaginator(c.org, &organizations.ListAccountsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return names, fmt.Errorf("awsce: list accounts: %w", err)
		}
		for _, a := range page.Accounts {
			if id := aws.ToString(a.Id); id != "" {
				names[id] = aws.ToString(a.Name)
			}
		}
	}
	return names, nil
}

func groupRecord(g cetypes.Group, day time.Time) (model.CostRecord, error) {
	var service, account string
	if len(g.Keys) > 0 {
		service = g.Keys[0]
	}
	if len(g.Keys) > 1 {
		account = g.Keys[1]
	}

	metric, ok := g.Metrics[metricNetUnblended]
	if !ok || metric.Amount == nil {
		metric, ok = g.Metrics[metricUnblended]
	}
	if !ok || metric.Amount == nil {
		return model.CostRecord{}, fmt.Errorf("%w: %s/%s", ErrNoMetric, account, service)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(aws.ToString(metric.Amount)))
	if err != nil {
		return model.CostRecord{}, fmt.Errorf("awsce: amount for %s/%s: %w", account, service, err)
	}

	currency := strings.TrimSpace(aws.ToString(metric.Unit))
	if currency == "" {
		currency = defaultCurrency
	}

	return model.CostRecord{
		Provider:  model.AWS,
		Service:   service,
		AccountID: account,
		Amount:    amount,
		Currency:  currency,
		Date:      day,
	}, nil
}

func resultDate(r cetypes.ResultByTime) time.Time {
	if r.TimePeriod == nil {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", aws.ToString(r.TimePeriod.Start))
	if err != nil {
		return time.Time{}
	}
	return d
}
