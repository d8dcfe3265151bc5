package portal

import "strings"

// Filter narrows the browse listing. Empty fields match everything.
type Filter struct {
	Branch   string `json:"branch,omitempty"`
	Year     string `json:"year,omitempty"`
	Semester string `json:"semester,omitempty"`
	Type     string `json:"type,omitempty"`
	Search   string `json:"search,omitempty"`
}

// Empty reports whether no filter field is set.
func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match reports whether m satisfies every set field. Search is a
// case-insensitive substring match on title or subject.
func (f Filter) Match(m Material) bool {
	if f.Branch != "" && m.Branch != f.Branch {
		return false
	}
	if f.Year != "" && m.Year != f.Year {
		return false
	}
	if f.Semester != "" && m.Semester != f.Semester {
		return false
	}
	if f.Type != "" && string(m.Type) != f.Type {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(m.Title), term) && !strings.Contains(strings.ToLower(m.Subject), term) {
			return false
		}
	}
	return true
}

// Browse returns the approved materials matching f, preserving catalog order.
func Browse(materials []Material, f Filter) []Material {
	out := make([]Material, 0, len(materials))
	for _, m := range materials {
		if m.IsApproved && f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// Pending returns the materials awaiting approval.
func Pending(materials []Material) []Material {
	out := make([]Material, 0)
	for _, m := range materials {
		if !m.IsApproved {
			out = append(out, m)
		}
	}
	return out
}

// AdminSearch matches term against title or uploader name across all materials.
func AdminSearch(materials []Material, term string) []Material {
	term = strings.ToLower(term)
	out := make([]Material, 0, len(materials))
	for _, m := range materials {
		if strings.Contains(strings.ToLower(m.Title), term) || strings.Contains(strings.ToLower(m.UploaderName), term) {
			out = append(out, m)
		}
	}
	return out
}

// BranchCount is the number of uploads for one branch.
type BranchCount struct {
	Branch string `json:"branch"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// Stats summarizes the catalogs for the admin dashboard.
type Stats struct {
	TotalUsers     int           `json:"total_users"`
	TotalFiles     int           `json:"total_files"`
	TotalDownloads int           `json:"total_downloads"`
	Pending        int           `json:"pending"`
	ByBranch       []BranchCount `json:"by_branch"`
}

// ComputeStats aggregates the admin dashboard figures.
func ComputeStats(accounts []Account, materials []Material) Stats {
	stats := Stats{
		TotalUsers: len(accounts),
		TotalFiles: len(materials),
		ByBranch:   make([]BranchCount, 0, len(Branches)),
	}
	perBranch := make(map[string]int, len(Branches))
	for _, m := range materials {
		stats.TotalDownloads += m.Downloads
		if !m.IsApproved {
			stats.Pending++
		}
		perBranch[m.Branch]++
	}
	for _, b := range Branches {
		stats.ByBranch = append(stats.ByBranch, BranchCount{Branch: b.Value, Label: b.Label, Count: perBranch[b.Value]})
	}
	return stats
}
