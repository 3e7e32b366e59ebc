package parsers

import (
	"fmt"

	"github.com/username/cryptofolio/backend/src/parsers/csv"
	"github.com/username/cryptofolio/backend/src/parsers/xlsx"
)

// GetParser returns the parser for a file format ("csv" or "xlsx").
func GetParser(format string) (Parser, error) {
	switch format {
	case "csv":
		return csv.NewParser(), nil
	case "xlsx":
		return xlsx.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
