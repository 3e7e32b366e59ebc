package validation

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1234", "'+1234"},
		{"-42", "'-42"},
		{"@cmd", "'@cmd"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeForFormulaInjection(tt.in), "input %q", tt.in)
	}
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x1bc"))
	assert.Equal(t, "a\tb\nc\r", StripUnprintable("a\tb\nc\r"))
}

func TestSanitizeImportedStringStripsHTML(t *testing.T) {
	assert.Equal(t, "BTC/INR", SanitizeImportedString("<script>x</script>BTC/INR"))
	assert.Equal(t, "hello", SanitizeImportedString("<b>hello</b>"))
}

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{
		"text/csv",
		"text/csv; charset=utf-8",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"application/octet-stream",
	} {
		assert.NoError(t, ValidateClientContentType(ct), "content type %s", ct)
	}

	err := ValidateClientContentType("image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestValidateFileContentByMagicBytesCSV(t *testing.T) {
	file := bytes.NewReader([]byte("market,type,amount\nBTC/INR,BUY,1\n"))

	format, err := ValidateFileContentByMagicBytes(file)
	require.NoError(t, err)
	assert.Equal(t, "csv", format)

	// The reader must be rewound for the parser.
	pos, err := file.Seek(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestValidateFileContentByMagicBytesXLSX(t *testing.T) {
	content := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("rest of zip")...)
	format, err := ValidateFileContentByMagicBytes(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "xlsx", format)
}

func TestValidateFileContentByMagicBytesRejectsBinary(t *testing.T) {
	// PNG signature is neither text-like nor a zip container.
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	_, err := ValidateFileContentByMagicBytes(bytes.NewReader(png))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
