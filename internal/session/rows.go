package session

// ImportOptions are the explicit settings of an import. Nothing is read from
// ambient configuration.
type ImportOptions struct {
	// Region names the surface region; it defaults to the table name.
	Region string
	// Sheet, AnchorRow and AnchorCol place the top-left cell. An empty sheet
	// means a new sheet named after the region.
	Sheet     string
	AnchorRow int
	AnchorCol int
	// IncludeHeaders writes the column names above the data.
	IncludeHeaders bool
	// CreateTable formats the region as a structured table, which always
	// carries a header row.
	CreateTable bool
	// SurfaceMaxRows is the row capacity of a sheet; zero asks the surface.
	SurfaceMaxRows int
	// FirstRow is the 1-based first result row to import.
	FirstRow int
	// LimitRows caps the rows read from the table, on top of what fits on
	// the surface. Zero means no cap.
	LimitRows int
	// Editable writes a hidden snapshot so an EditSession can diff later.
	Editable bool
}

func (o ImportOptions) headerRows() int {
	if o.IncludeHeaders || o.CreateTable {
		return 1
	}
	return 0
}

// ImportingRowsInfo tells how many rows of a result fit on the surface.
type ImportingRowsInfo struct {
	RowsCount             int  `json:"rowsCount"`
	RowsToImport          int  `json:"rowsToImport"`
	MaximumRowsThatFit    int  `json:"maximumRowsThatFit"`
	RowsLimit             int  `json:"rowsLimit"`
	RowsCountExceedsLimit bool `json:"rowsCountExceedsLimit"`
}

// ComputeImportingRowsInfo applies rowsToImport = rowsCount - startingRow + 1
// and rowsLimit = min(rowsToImport, maximumRowsThatFit). The rows that fit
// are counted from the anchor row down, less the header row when one is
// written.
func ComputeImportingRowsInfo(rowsCount, startingRow int, opts ImportOptions) ImportingRowsInfo {
	startingRow = max(startingRow, 1)
	anchor := max(opts.AnchorRow, 1)

	info := ImportingRowsInfo{RowsCount: rowsCount}
	info.RowsToImport = max(rowsCount-startingRow+1, 0)
	info.MaximumRowsThatFit = max(opts.SurfaceMaxRows-anchor+1-opts.headerRows(), 0)
	info.RowsLimit = min(info.RowsToImport, info.MaximumRowsThatFit)
	info.RowsCountExceedsLimit = info.RowsToImport > info.MaximumRowsThatFit
	return info
}
