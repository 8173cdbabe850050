package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate is configured for a currency.
var ErrUnknownCurrency = errors.New("config: no exchange rate for currency")

type rateVersion struct {
	EffectiveFrom time.Time
	Rate          decimal.Decimal
}

// RateTable converts amounts into the report currency.
type RateTable struct {
	base  string
	fixed map[string]decimal.Decimal
	// history entries are sorted by EffectiveFrom ascending.
	history map[string][]rateVersion
}

// NewRateTable builds a RateTable for the given report currency.
func NewRateTable(base string, rc RatesConfig) (*RateTable, error) {
	t := &RateTable{
		base:    normalizeCurrency(base),
		fixed:   make(map[string]decimal.Decimal, len(rc.Fixed)),
		history: make(map[string][]rateVersion),
	}

	for cur, rate := range rc.Fixed {
		if rate <= 0 {
			return nil, fmt.Errorf("rates.fixed.%s must be > 0", cur)
		}
		t.fixed[normalizeCurrency(cur)] = decimal.NewFromFloat(rate)
	}

	for _, e := range rc.Schedule {
		if e.Rate <= 0 {
			return nil, fmt.Errorf("rates.schedule %s@%s: rate must be > 0", e.Currency, e.EffectiveFrom)
		}
		from, err := time.Parse("2006-01-02", e.EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("rates.schedule %s: effective_from: %w", e.Currency, err)
		}
		cur := normalizeCurrency(e.Currency)
		t.history[cur] = append(t.history[cur], rateVersion{
			EffectiveFrom: from,
			Rate:          decimal.NewFromFloat(e.Rate),
		})
	}
	for cur := range t.history {
		versions := t.history[cur]
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].EffectiveFrom.Before(versions[j].EffectiveFrom)
		})
	}

	return t, nil
}

// Base returns the report currency code.
func (t *RateTable) Base() string {
	return t.base
}

// RateAt returns how many report-currency units one unit of currency is worth at the given time.
// If at is zero, the latest known schedule entry is used. A time before the
// first schedule entry falls back to the fixed rate, if any.
func (t *RateTable) RateAt(currency string, at time.Time) (decimal.Decimal, error) {
	cur := normalizeCurrency(currency)
	if cur == t.base {
		return decimal.NewFromInt(1), nil
	}

	versions := t.history[cur]
	if len(versions) > 0 {
		if at.IsZero() {
			return versions[len(versions)-1].Rate, nil
		}
		at = at.UTC()
		var selected *rateVersion
		for i := range versions {
			if at.Before(versions[i].EffectiveFrom) {
				break
			}
			selected = &versions[i]
		}
		if selected != nil {
			return selected.Rate, nil
		}
		if fixed, ok := t.fixed[cur]; ok {
			return fixed, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %q before %s", ErrUnknownCurrency, currency,
			versions[0].EffectiveFrom.Format("2006-01-02"))
	}

	if fixed, ok := t.fixed[cur]; ok {
		return fixed, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
}

// Convert returns amount expressed in the report currency.
func (t *RateTable) Convert(amount decimal.Decimal, currency string, at time.Time) (decimal.Decimal, error) {
	rate, err := t.RateAt(currency, at)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
