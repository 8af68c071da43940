package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableSize(t *testing.T) {
	limits := TableLimits{MaxRows: 10, MaxCols: 5}

	testCases := []struct {
		name    string
		size    TableSize
		wantErr string
	}{
		{"Valid", TableSize{Rows: 3, Cols: 3}, ""},
		{"Limits", TableSize{Rows: 10, Cols: 5}, ""},
		{"ZeroRows", TableSize{Rows: 0, Cols: 3}, "invalid table size"},
		{"NegativeCols", TableSize{Rows: 1, Cols: -1}, "invalid table size"},
		{"TooManyRows", TableSize{Rows: 11, Cols: 3}, "at most 10 rows"},
		{"TooManyCols", TableSize{Rows: 1, Cols: 6}, "at most 5 columns"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTableSize(tc.size, limits)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}

	assert.NoError(t, ValidateTableSize(TableSize{Rows: 1000, Cols: 1000}, TableLimits{}))
}

func TestTableSkeleton(t *testing.T) {
	skeleton := TableSkeleton(TableSize{Rows: 2, Cols: 3}, DefaultPlaceholders)
	require.Len(t, skeleton, 4)
	assert.Equal(t, []string{"Header", "Header", "Header"}, skeleton[0])
	assert.Equal(t, []string{"---", "---", "---"}, skeleton[1])
	assert.Equal(t, []string{"...", "...", "..."}, skeleton[2])
	assert.Equal(t, skeleton[2], skeleton[3])
}

func TestTableMarkup(t *testing.T) {
	skeleton := TableSkeleton(TableSize{Rows: 1, Cols: 2}, Placeholders{Header: "H", Separator: ":---:", Cell: "c"})
	assert.Equal(t, "\n| H | H |\n| :---: | :---: |\n| c | c |\n", TableMarkup(skeleton))
}
