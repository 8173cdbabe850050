// Package model defines domain types for costnotify cost records and reports.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies a cloud billing source.
type Provider string

const (
	AWS   Provider = "aws"
	Azure Provider = "azure"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{AWS, Azure}

// Label returns the display name of the provider.
func (p Provider) Label() string {
	switch p {
	case AWS:
		return "AWS"
	case Azure:
		return "Azure"
	default:
		return string(p)
	}
}

// Order returns the display position of the provider, unknown providers last.
func (p Provider) Order() int {
	for i, known := range Providers {
		if known == p {
			return i
		}
	}
	return len(Providers)
}

// CostRecord is one (service, account) amount as reported by a provider.
// For Azure, AccountID holds the subscription ID.
type CostRecord struct {
	Provider    Provider
	Service     string
	AccountID   string
	AccountName string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
}

// ProjectCosts holds the cumulative amounts credited to one project.
type ProjectCosts struct {
	Name     string
	Services map[Provider]map[string]decimal.Decimal
	Accounts map[Provider]map[string]decimal.Decimal
	// Daily is keyed by UTC date (YYYY-MM-DD).
	Daily    map[string]decimal.Decimal
	Records  int
}

// DailyCost is the spend of one project on one day.
type DailyCost struct {
	Date   time.Time
	Amount decimal.Decimal
}

// NewProjectCosts returns an empty ProjectCosts for the named project.
func NewProjectCosts(name string) *ProjectCosts {
	pc := &ProjectCosts{
		Name:     name,
		Services: make(map[Provider]map[string]decimal.Decimal, len(Providers)),
		Accounts: make(map[Provider]map[string]decimal.Decimal, len(Providers)),
		Daily:    make(map[string]decimal.Decimal),
	}
	for _, p := range Providers {
		pc.Services[p] = make(map[string]decimal.Decimal)
		pc.Accounts[p] = make(map[string]decimal.Decimal)
	}
	return pc
}

// Add credits a record to its service, account and day.
func (pc *ProjectCosts) Add(r CostRecord) {
	p := r.Provider
	if pc.Services[p] == nil {
		pc.Services[p] = make(map[string]decimal.Decimal)
	}
	if pc.Accounts[p] == nil {
		pc.Accounts[p] = make(map[string]decimal.Decimal)
	}
	pc.Services[p][r.Service] = pc.Services[p][r.Service].Add(r.Amount)
	pc.Accounts[p][r.AccountID] = pc.Accounts[p][r.AccountID].Add(r.Amount)
	if !r.Date.IsZero() {
		if pc.Daily == nil {
			pc.Daily = make(map[string]decimal.Decimal)
		}
		day := r.Date.UTC().Format("2006-01-02")
		pc.Daily[day] = pc.Daily[day].Add(r.Amount)
	}
	pc.Records++
}

// ProviderTotal sums every service amount for one provider.
func (pc *ProjectCosts) ProviderTotal(p Provider) decimal.Decimal {
	total := decimal.Zero
	for _, v := range pc.Services[p] {
		total = total.Add(v)
	}
	return total
}

// Total sums every service amount across providers.
func (pc *ProjectCosts) Total() decimal.Decimal {
	total := decimal.Zero
	for p := range pc.Services {
		total = total.Add(pc.ProviderTotal(p))
	}
	return total
}

// RankedItem is one row of the top-N services table.
type RankedItem struct {
	Rank     int
	Provider Provider
	Name     string
	Amount   decimal.Decimal
}

// AccountLine is one row of the per-account table.
type AccountLine struct {
	Provider Provider
	ID       string
	Name     string
	Amount   decimal.Decimal
}
