package parsers

import (
	"io"

	"github.com/username/cryptofolio/backend/src/models"
)

// Parser reads a spreadsheet-like file into the engine's transaction shape.
type Parser interface {
	Parse(file io.Reader) ([]models.Transaction, error)
}
