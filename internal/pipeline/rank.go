package pipeline

import (
	"sort"

	"github.com/theirongolddev/costnotify/internal/model"
)

// RankServices returns the n most expensive (provider, service) pairs of a
// project. Equal amounts are ordered by provider, then by name. n <= 0 returns
// every pair.
func RankServices(pc *model.ProjectCosts, n int) []model.RankedItem {
	var items []model.RankedItem
	for p, services := range pc.Services {
		for name, amount := range services {
			items = append(items, model.RankedItem{Provider: p, Name: name, Amount: amount})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Amount.Cmp(items[j].Amount); c != 0 {
			return c > 0
		}
		if oi, oj := items[i].Provider.Order(), items[j].Provider.Order(); oi != oj {
			return oi < oj
		}
		return items[i].Name < items[j].Name
	})

	if n > 0 && len(items) > n {
		items = items[:n]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

// RankAccounts returns every account of a project, most expensive first.
// Names come from names; unknown AWS accounts show their ID and unknown Azure
// subscriptions show "-".
func RankAccounts(pc *model.ProjectCosts, names map[model.Provider]map[string]string) []model.AccountLine {
	var lines []model.AccountLine
	for p, accounts := range pc.Accounts {
		for id, amount := range accounts {
			lines = append(lines, model.AccountLine{
				Provider: p,
				ID:       id,
				Name:     accountName(names, p, id),
				Amount:   amount,
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		if c := lines[i].Amount.Cmp(lines[j].Amount); c != 0 {
			return c > 0
		}
		if oi, oj := lines[i].Provider.Order(), lines[j].Provider.Order(); oi != oj {
			return oi < oj
		}
		return lines[i].ID < lines[j].ID
	})
	return lines
}

func accountName(names map[model.Provider]map[string]string, p model.Provider, id string) string {
	if name := names[p][id]; name != "" {
		return name
	}
	if p == model.AWS {
		return id
	}
	return "-"
}
