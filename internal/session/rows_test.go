package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeImportingRowsInfo(t *testing.T) {
	tests := []struct {
		name        string
		rowsCount   int
		startingRow int
		opts        ImportOptions
		want        ImportingRowsInfo
	}{
		{
			name:        "everything fits",
			rowsCount:   100,
			startingRow: 1,
			opts:        ImportOptions{IncludeHeaders: true, SurfaceMaxRows: 1048576, AnchorRow: 1},
			want:        ImportingRowsInfo{RowsCount: 100, RowsToImport: 100, MaximumRowsThatFit: 1048575, RowsLimit: 100},
		},
		{
			name:        "starting row skips rows",
			rowsCount:   100,
			startingRow: 11,
			opts:        ImportOptions{SurfaceMaxRows: 50, AnchorRow: 1},
			want:        ImportingRowsInfo{RowsCount: 100, RowsToImport: 90, MaximumRowsThatFit: 50, RowsLimit: 50, RowsCountExceedsLimit: true},
		},
		{
			name:        "structured table reserves a header row",
			rowsCount:   10,
			startingRow: 1,
			opts:        ImportOptions{CreateTable: true, SurfaceMaxRows: 20, AnchorRow: 15},
			want:        ImportingRowsInfo{RowsCount: 10, RowsToImport: 10, MaximumRowsThatFit: 5, RowsLimit: 5, RowsCountExceedsLimit: true},
		},
		{
			name:        "starting row past the end",
			rowsCount:   5,
			startingRow: 9,
			opts:        ImportOptions{SurfaceMaxRows: 100, AnchorRow: 1},
			want:        ImportingRowsInfo{RowsCount: 5, MaximumRowsThatFit: 100},
		},
		{
			name:        "zero starting row and anchor count as one",
			rowsCount:   3,
			startingRow: 0,
			opts:        ImportOptions{IncludeHeaders: true, SurfaceMaxRows: 3},
			want:        ImportingRowsInfo{RowsCount: 3, RowsToImport: 3, MaximumRowsThatFit: 2, RowsLimit: 2, RowsCountExceedsLimit: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeImportingRowsInfo(tt.rowsCount, tt.startingRow, tt.opts))
		})
	}
}
