package dataset

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/feateval/feateval/errors"
)

// CSVColumns names the special columns of a CSV dataset. Target is required;
// the remaining names are optional. Every other column is a feature, in
// header order.
type CSVColumns struct {
	Target    string
	Weight    string
	Group     string
	Timestamp string
}

// LoadCSV parses a CSV dataset. It returns the dataset and the names of the
// feature columns in header order; feature indices used in evaluation options
// refer to this order.
func LoadCSV(data []byte, cols CSVColumns) (*Dataset, []string, error) {
	if cols.Target == "" {
		return nil, nil, errors.New("target column name is required")
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading CSV header")
	}

	rows, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading CSV rows")
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("CSV contains no data rows")
	}

	special := map[string]bool{cols.Target: true}
	for _, name := range []string{cols.Weight, cols.Group, cols.Timestamp} {
		if name != "" {
			special[name] = true
		}
	}
	var featureNames []string
	seen := make(map[string]bool)
	for _, name := range header {
		if !special[name] {
			featureNames = append(featureNames, name)
		}
		seen[name] = true
	}
	for name := range special {
		if !seen[name] {
			return nil, nil, errors.Errorf("column %q not found in CSV header", name)
		}
	}

	d := &Dataset{
		Features: make([][]float64, len(rows)),
		Target:   make([]float64, len(rows)),
	}
	if cols.Weight != "" {
		d.Weight = make([]float64, len(rows))
	}
	if cols.Group != "" {
		d.GroupID = make([]uint64, len(rows))
	}
	if cols.Timestamp != "" {
		d.Timestamp = make([]uint64, len(rows))
	}

	// group ids may be arbitrary strings; intern them in order of appearance
	groupIDs := make(map[string]uint64)
	for i, row := range rows {
		d.Features[i] = make([]float64, len(featureNames))
		for f, name := range featureNames {
			v, err := strconv.ParseFloat(row[name], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "row %d: feature column %q", i, name)
			}
			d.Features[i][f] = v
		}
		if d.Target[i], err = strconv.ParseFloat(row[cols.Target], 64); err != nil {
			return nil, nil, errors.Wrapf(err, "row %d: target column %q", i, cols.Target)
		}
		if d.Weight != nil {
			if d.Weight[i], err = strconv.ParseFloat(row[cols.Weight], 64); err != nil {
				return nil, nil, errors.Wrapf(err, "row %d: weight column %q", i, cols.Weight)
			}
		}
		if d.GroupID != nil {
			raw := row[cols.Group]
			id, ok := groupIDs[raw]
			if !ok {
				id = uint64(len(groupIDs))
				groupIDs[raw] = id
			}
			d.GroupID[i] = id
		}
		if d.Timestamp != nil {
			if d.Timestamp[i], err = strconv.ParseUint(row[cols.Timestamp], 10, 64); err != nil {
				return nil, nil, errors.Wrapf(err, "row %d: timestamp column %q", i, cols.Timestamp)
			}
		}
	}

	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	return d, featureNames, nil
}
