package ports

// TableReader reads a flat file (CSV or XLSX) into headers plus string rows.
type TableReader interface {
	ReadTable() (headers []string, rows [][]string, err error)
}
