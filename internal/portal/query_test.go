package portal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ids(materials []Material) []string {
	out := make([]string, 0, len(materials))
	for _, m := range materials {
		out = append(out, m.ID)
	}
	return out
}

func TestBrowseShowsOnlyApproved(t *testing.T) {
	materials := SeedMaterials(time.Now())

	require.Equal(t, []string{"m1", "m2", "m4"}, ids(Browse(materials, Filter{})))
}

func TestBrowseFilters(t *testing.T) {
	materials := SeedMaterials(time.Now())

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"branch", Filter{Branch: "CSE"}, []string{"m1"}},
		{"year", Filter{Year: "2nd Year"}, []string{"m1", "m2"}},
		{"semester", Filter{Semester: "Sem 1"}, []string{"m4"}},
		{"type", Filter{Type: "PYQ"}, []string{"m2"}},
		{"search title", Filter{Search: "cheat"}, []string{"m4"}},
		{"search subject", Filter{Search: "OPERATING"}, []string{"m2"}},
		{"combined", Filter{Branch: "CSE", Type: "Notes", Search: "data"}, []string{"m1"}},
		{"no match", Filter{Branch: "ME"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ids(Browse(materials, tc.filter)))
		})
	}
}

func TestFilterEmpty(t *testing.T) {
	require.True(t, Filter{}.Empty())
	require.False(t, Filter{Search: "x"}.Empty())
}

func TestPendingAndAdminSearch(t *testing.T) {
	materials := SeedMaterials(time.Now())

	require.Equal(t, []string{"m3"}, ids(Pending(materials)))
	require.Equal(t, []string{"m3"}, ids(AdminSearch(materials, "react")))
	require.Len(t, AdminSearch(materials, "rahul"), 4)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(SeedAccounts(), SeedMaterials(time.Now()))

	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 4, stats.TotalFiles)
	require.Equal(t, 124+89+432, stats.TotalDownloads)
	require.Equal(t, 1, stats.Pending)
	require.Len(t, stats.ByBranch, len(Branches))
	require.Equal(t, BranchCount{Branch: "CSE", Label: "Computer Science (CSE)", Count: 2}, stats.ByBranch[0])
	require.Equal(t, 0, stats.ByBranch[1].Count)
}
