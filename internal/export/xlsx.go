package export

import (
	"fmt"

	"github.com/vinodismyname/fuelprice/internal/aggregate"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX saves rep to path with one sheet per result set.
func WriteXLSX(path string, rep *aggregate.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables(rep) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("export: new sheet %s: %w", t.name, err)
		}
		header := t.header()
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return fmt.Errorf("export: %s header: %w", t.name, err)
		}
		for j, row := range t.rows {
			axis, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.name, axis, &row); err != nil {
				return fmt.Errorf("export: %s row %d: %w", t.name, j+2, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
