package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/costnotify/internal/model"
)

func benchRecords(n int) []model.CostRecord {
	accounts := []string{"111", "222", "333", "444", "999"}
	out := make([]model.CostRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, awsRecord(
			fmt.Sprintf("service-%d", i%150),
			accounts[i%len(accounts)],
			fmt.Sprintf("%d.%02d", i%1000, i%100),
		))
	}
	return out
}

func BenchmarkAttribute(b *testing.B) {
	projects := testProjects()
	recs := benchRecords(10_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Attribute(recs, projects)
	}
}

func BenchmarkRankServices(b *testing.B) {
	pc := Attribute(benchRecords(10_000), testProjects())["common"]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = RankServices(pc, 10)
	}
}
