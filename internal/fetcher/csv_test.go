package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVRowsTrimsAndToleratesRaggedRows(t *testing.T) {
	in := "ID, Title ,Status\n498159,Copilot, Rolling out\n700001,Loop\n"
	rows, err := ReadCSVRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Title", "Status"}, rows[0])
	assert.Equal(t, []string{"498159", "Copilot", "Rolling out"}, rows[1])
	assert.Equal(t, []string{"700001", "Loop"}, rows[2])
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile("does-not-exist.csv")
	assert.Error(t, err)
}
