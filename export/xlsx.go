package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const readingSheet = "Readings"

// WriteXLSX writes the route as a reading sheet for back-office review.
// One row per expected value, meters without values get a single row.
func WriteXLSX(doc *RouteDocument, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(readingSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := []interface{}{"Route", "Meter ID", "Energy Type", "Number", "Hint", "Address", "Subscriber", "Value ID", "Old", "Min", "Max"}
	if err := f.SetSheetRow(readingSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, m := range doc.Meter {
		values := m.Value
		if len(values) == 0 {
			values = []Value{{}}
		}
		for _, v := range values {
			cells := []interface{}{doc.Route, m.ID, m.Energytype, m.Number, m.Hint, m.Address, m.Subscriber, v.ID, cellNumber(v.Old), cellNumber(v.Min), cellNumber(v.Max)}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(readingSheet, cell, &cells); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}

func cellNumber(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
