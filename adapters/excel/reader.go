package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"ratelab/internal"
	"ratelab/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader reads a policy or claims table from a CSV or XLSX file into
// headers plus string rows. The file type is inferred from the extension.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for the given file.
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadTable implements ports.TableReader.
func (r *DataReader) ReadTable() ([]string, [][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, nil, errors.NotFound(r.fileType + " file " + r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readXLSX()
	default:
		return nil, nil, errors.InvalidInput("unsupported file type: " + r.fileType)
	}
}

func (r *DataReader) readCSV() ([]string, [][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read CSV file")
	}
	if len(records) < 2 {
		return nil, nil, errors.DataInvalid("file must have a header row and at least one data row")
	}

	internal.DefaultLogger.Debug("read %d rows from %s", len(records)-1, r.filePath)
	return records[0], records[1:], nil
}

func (r *DataReader) readXLSX() ([]string, [][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	if len(rows) < 2 {
		return nil, nil, errors.DataInvalid("file must have a header row and at least one data row")
	}

	internal.DefaultLogger.Debug("read %d rows from %s (sheet %s)", len(rows)-1, r.filePath, sheet)
	return rows[0], rows[1:], nil
}
