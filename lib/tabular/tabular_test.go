package tabular

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCsvWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	err := CsvWriter{Path: path}.Write(context.Background(), Table{
		Header: []string{"Badge ID", "Email"},
		Rows: [][]string{
			{"E001", "a@trna.com.vn"},
			{"E002", ""},
		},
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Badge ID")
	require.Contains(t, lines[1], "E001")
	require.Contains(t, lines[1], "a@trna.com.vn")
	require.Contains(t, lines[2], "E002")
}
