package pipeline

import (
	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/model"
)

// Attribute credits every record to the projects that own its account or
// subscription. A record owned by several projects is credited to each of them;
// a record owned by none goes to the default project. Every project in the map
// gets an entry, even when nothing is credited to it.
func Attribute(records []model.CostRecord, projects config.ProjectMap) map[string]*model.ProjectCosts {
	out := make(map[string]*model.ProjectCosts, len(projects.Projects))
	for name := range projects.Projects {
		out[name] = model.NewProjectCosts(name)
	}
	if _, ok := out[projects.Default]; !ok && projects.Default != "" {
		out[projects.Default] = model.NewProjectCosts(projects.Default)
	}

	for _, r := range records {
		matched := false
		for name, p := range projects.Projects {
			if !owns(p, r) {
				continue
			}
			out[name].Add(r)
			matched = true
		}
		if !matched {
			if pc, ok := out[projects.Default]; ok {
				pc.Add(r)
			}
		}
	}
	return out
}

func owns(p config.Project, r model.CostRecord) bool {
	switch r.Provider {
	case model.AWS:
		return p.HasAccount(r.AccountID)
	case model.Azure:
		return p.HasSubscription(r.AccountID)
	default:
		return false
	}
}
