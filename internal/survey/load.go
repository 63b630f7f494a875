package survey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// LoadFile opens path and reads every survey row from it.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MissingInputError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &MissingInputError{Path: path, Err: err}
	}
	return records, nil
}

// ReadCSV parses a comma-separated survey with one header row. Columns are
// located by header name, so order does not matter and extra columns are
// ignored.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &FormatError{Line: 1, Column: "header", Err: errors.New("empty input")}
	}
	if err != nil {
		return nil, readError(err)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var out []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) < idx.width {
			return nil, &FormatError{Line: line, Column: "row", Err: fmt.Errorf("expected at least %d fields, got %d", idx.width, len(row))}
		}
		get := func(col string) string { return strings.TrimSpace(row[idx.pos[col]]) }
		out = append(out, Record{
			Line:             line,
			State:            get(ColState),
			Municipality:     get(ColMunicipality),
			Region:           get(ColRegion),
			Product:          get(ColProduct),
			PeriodStart:      get(ColPeriodStart),
			PeriodEnd:        get(ColPeriodEnd),
			AvgResalePrice:   get(ColAvgResalePrice),
			MinResalePrice:   get(ColMinResalePrice),
			MaxResalePrice:   get(ColMaxResalePrice),
			StationsSurveyed: get(ColStationsSurveyed),
		})
	}
	return out, nil
}

type columnIndex struct {
	pos   map[string]int
	width int // smallest row length that covers every required column
}

func indexColumns(header []string) (columnIndex, error) {
	idx := columnIndex{pos: make(map[string]int, len(RequiredColumns))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if _, dup := idx.pos[h]; !dup {
			idx.pos[h] = i
		}
	}
	for _, col := range RequiredColumns {
		p, ok := idx.pos[col]
		if !ok {
			return idx, &FormatError{Line: 1, Column: col, Err: errors.New("required column not found in header")}
		}
		if p+1 > idx.width {
			idx.width = p + 1
		}
	}
	return idx, nil
}

// readError converts csv parse failures into FormatErrors and passes I/O
// failures through unchanged.
func readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{Line: pe.Line, Column: "row", Err: pe.Err}
	}
	return err
}
