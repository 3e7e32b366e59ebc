package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/parsers/tabular"
)

type XLSXParser struct{}

func NewParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads the first sheet of an XLSX workbook. The first row is the
// header row; the rest are transactions.
func (p *XLSXParser) Parse(file io.Reader) ([]models.Transaction, error) {
	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return tabular.FromRows(rows[0], rows[1:]), nil
}
