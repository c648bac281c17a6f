package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCleansHeaderNames(t *testing.T) {
	path := writeTempCSV(t, "\"rollNumber (REQUIRED, unique)\",firstName,lastName\n42,John,Doe\n")

	rows, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "42", rows[0]["rollNumber"])
	assert.Equal(t, "John", rows[0]["firstName"])
}

func TestParseEmptyHeaderIsFatal(t *testing.T) {
	path := writeTempCSV(t, "firstName,   (Optional)\nJohn,x\n")

	_, err := Parse(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty header")
}

func TestParseQuotedValues(t *testing.T) {
	path := writeTempCSV(t, "firstName,lastName,age\nJohn,\"Doe, Jr.\",30\n")

	rows, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Doe, Jr.", rows[0]["lastName"])
	assert.Equal(t, "30", rows[0]["age"])
}

func TestParseBackslashEscapedQuotes(t *testing.T) {
	path := writeTempCSV(t, "firstName,nickname\nJohn,\"the \\\"Rocket\\\"\"\n")

	rows, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `the "Rocket"`, rows[0]["nickname"])
}

func TestParseSkipsSampleAndEmptyRows(t *testing.T) {
	content := "firstName,lastName,email,note\n" +
		"John,Doe,,ok\n" +
		",,,\n" +
		",,,fill in names above\n" +
		"Jane,Smith,jane@campus.edu,ok\n"
	path := writeTempCSV(t, content)

	rows, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "John", rows[0]["firstName"])
	assert.Equal(t, "Jane", rows[1]["firstName"])
}

func TestParseRequiresHeaderAndData(t *testing.T) {
	path := writeTempCSV(t, "firstName,lastName,email\n")

	_, err := Parse(path)
	require.Error(t, err)
}

func TestParseAllRowsFilteredIsFatal(t *testing.T) {
	path := writeTempCSV(t, "firstName,lastName,email\n,,\n,,\n")

	_, err := Parse(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid data rows")
}

func TestParseWorkbookFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"firstName", "lastName (REQUIRED)", "email"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"Amina", "Okello", "amina@campus.edu"}))
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Okello", rows[0]["lastName"])
	assert.Equal(t, "amina@campus.edu", rows[0]["email"])
}
