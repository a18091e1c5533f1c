package migrate

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLFilesSortedAndComplete(t *testing.T) {
	files, err := sqlFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.True(t, sort.StringsAreSorted(files))
	assert.Contains(t, files, "0001_init.sql")
	for _, f := range files {
		assert.Regexp(t, `^\d{4}_.+\.sql$`, f)
	}
}
