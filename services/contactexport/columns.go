package contactexport

import (
	"fmt"
	"hrmexport/lib/scrapers/hrm"
	"hrmexport/lib/tabular"
	"slices"
	"strings"
)

// mergeSet deduplicates contacts by badge id while preserving the
// order badges were first seen in. scalar fields keep their first-seen
// values, project sets are unioned.
type mergeSet struct {
	order   []string
	byBadge map[string]*hrm.Contact
}

func newMergeSet() *mergeSet {
	return &mergeSet{byBadge: map[string]*hrm.Contact{}}
}

func (m *mergeSet) add(c hrm.Contact) {
	existing, ok := m.byBadge[c.BadgeId]
	if !ok {
		clone := c
		clone.Projects = slices.Clone(c.Projects)
		m.byBadge[c.BadgeId] = &clone
		m.order = append(m.order, c.BadgeId)
		return
	}

	seen := map[string]bool{}
	for _, p := range existing.Projects {
		seen[p] = true
	}
	for _, p := range c.Projects {
		if !seen[p] {
			seen[p] = true
			existing.Projects = append(existing.Projects, p)
		}
	}
}

func (m *mergeSet) addAll(contacts []hrm.Contact) {
	for _, c := range contacts {
		m.add(c)
	}
}

func (m *mergeSet) ordered() []hrm.Contact {
	out := make([]hrm.Contact, 0, len(m.order))
	for _, badge := range m.order {
		out = append(out, *m.byBadge[badge])
	}
	return out
}

var baseHeader = []string{
	"Badge ID",
	"Fullname (VN)",
	"Fullname (EN)",
	"Email",
	"Work Phone",
	"Position",
	"Location",
	"Projects/Groups",
	"View Detail URL",
	"Resume URL",
}

// buildTable shapes the final column set: the fixed columns plus one
// "Project N" column per project slot, sized to the largest project
// set seen in the run. shorter records leave their trailing project
// cells blank.
func buildTable(contacts []hrm.Contact) tabular.Table {
	maxProjects := 0
	for _, c := range contacts {
		if len(c.Projects) > maxProjects {
			maxProjects = len(c.Projects)
		}
	}

	header := slices.Clone(baseHeader)
	for i := 1; i <= maxProjects; i++ {
		header = append(header, fmt.Sprintf("Project %d", i))
	}

	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		row := []string{
			c.BadgeId,
			c.FullnameVN,
			c.FullnameEN,
			c.Email,
			c.WorkPhone,
			c.Position,
			c.Location,
			strings.Join(c.Projects, " | "),
			c.DetailUrl,
			c.ResumeUrl,
		}
		for i := 0; i < maxProjects; i++ {
			if i < len(c.Projects) {
				row = append(row, c.Projects[i])
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	return tabular.Table{Header: header, Rows: rows}
}
