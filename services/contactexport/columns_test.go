package contactexport

import (
	"hrmexport/lib/scrapers/hrm"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeSet(t *testing.T) {
	merged := newMergeSet()
	merged.addAll([]hrm.Contact{
		{BadgeId: "E1", Position: "Engineer", Projects: []string{"Apollo"}},
		{BadgeId: "E2", Position: "Designer"},
	})
	merged.addAll([]hrm.Contact{
		{BadgeId: "E1", Position: "Manager", Projects: []string{"Hermes", "Apollo"}},
		{BadgeId: "E3", Position: "QA"},
	})

	out := merged.ordered()
	require.Len(t, out, 3)
	require.Equal(t, "E1", out[0].BadgeId)
	require.Equal(t, "E2", out[1].BadgeId)
	require.Equal(t, "E3", out[2].BadgeId)

	// first sighting wins for scalars, project lists are unioned in
	// first-seen order
	require.Equal(t, "Engineer", out[0].Position)
	require.Equal(t, []string{"Apollo", "Hermes"}, out[0].Projects)
}

func TestMergeSetDoesNotAliasInput(t *testing.T) {
	source := hrm.Contact{BadgeId: "E1", Projects: []string{"Apollo"}}
	merged := newMergeSet()
	merged.add(source)
	merged.add(hrm.Contact{BadgeId: "E1", Projects: []string{"Hermes"}})

	require.Equal(t, []string{"Apollo"}, source.Projects)
}

func TestBuildTable(t *testing.T) {
	table := buildTable([]hrm.Contact{
		{BadgeId: "E1", Projects: []string{"Apollo", "Hermes", "Zeus"}},
		{BadgeId: "E2", Projects: []string{"Apollo"}},
		{BadgeId: "E3"},
	})

	// ten fixed columns plus one per project slot of the widest record
	require.Len(t, table.Header, 13)
	require.Equal(t, "Project 1", table.Header[10])
	require.Equal(t, "Project 3", table.Header[12])

	for _, row := range table.Rows {
		require.Len(t, row, len(table.Header))
	}
	require.Equal(t, "Apollo | Hermes | Zeus", table.Rows[0][7])
	require.Equal(t, "Zeus", table.Rows[0][12])
	require.Equal(t, "", table.Rows[1][11])
	require.Equal(t, "", table.Rows[2][10])
}

func TestBuildTableNoProjects(t *testing.T) {
	table := buildTable([]hrm.Contact{{BadgeId: "E1"}})
	require.Len(t, table.Header, 10)
	require.Len(t, table.Rows[0], 10)
}
