package editor

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// TableSize is the number of data rows and columns of a new table.
type TableSize struct {
	Rows int `validate:"min=1"`
	Cols int `validate:"min=1"`
}

// TableLimits caps table sizes accepted at the prompt.
type TableLimits struct {
	MaxRows int
	MaxCols int
}

// Placeholders fill the cells of a new table.
type Placeholders struct {
	Header    string
	Separator string
	Cell      string
}

var (
	DefaultTableSize    = TableSize{Rows: 3, Cols: 3}
	DefaultTableLimits  = TableLimits{MaxRows: 50, MaxCols: 20}
	DefaultPlaceholders = Placeholders{Header: "Header", Separator: "---", Cell: "..."}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTableSize checks a user supplied size. It is meant for prompt
// implementations; the dispatcher trusts the sizes it receives.
func ValidateTableSize(size TableSize, limits TableLimits) error {
	if err := validate.Struct(size); err != nil {
		return errors.Wrap(err, "invalid table size")
	}
	if limits.MaxRows > 0 {
		if err := validate.Var(size.Rows, fmt.Sprintf("max=%d", limits.MaxRows)); err != nil {
			return errors.Wrapf(err, "at most %d rows are allowed", limits.MaxRows)
		}
	}
	if limits.MaxCols > 0 {
		if err := validate.Var(size.Cols, fmt.Sprintf("max=%d", limits.MaxCols)); err != nil {
			return errors.Wrapf(err, "at most %d columns are allowed", limits.MaxCols)
		}
	}
	return nil
}

// TableSkeleton returns the cells of a new table: a header row, a separator
// row and size.Rows data rows, each size.Cols wide.
func TableSkeleton(size TableSize, p Placeholders) [][]string {
	row := func(value string) []string {
		cells := make([]string, size.Cols)
		for i := range cells {
			cells[i] = value
		}
		return cells
	}

	result := make([][]string, 0, size.Rows+2)
	result = append(result, row(p.Header), row(p.Separator))
	for i := 0; i < size.Rows; i++ {
		result = append(result, row(p.Cell))
	}
	return result
}

// TableMarkup renders a skeleton as a pipe table. The text starts with a line
// break so the table never continues the line at the caret.
func TableMarkup(skeleton [][]string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, row := range skeleton {
		b.WriteString("| ")
		b.WriteString(strings.Join(row, " | "))
		b.WriteString(" |\n")
	}
	return b.String()
}
