package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/parsers/tabular"
)

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	return tabular.FromRows(headers, records), nil
}
