package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable(t *testing.T) {
	table := NewTableData("NAME", "KIND")
	table.AddRow("notes", "directory")
	table.AddRow("todo.txt", "file")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, "todo.txt")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"entries": 2}))
	assert.Contains(t, buf.String(), `"entries": 2`)
}
