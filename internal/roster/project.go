package roster

import "fmt"

// Project narrows every record to fields, in the order given. The caller
// is responsible for rejecting an empty selection.
func Project(ds *Dataset, fields []string) (*Dataset, error) {
	idx := make([]int, len(fields))
	for i, f := range fields {
		j, ok := ds.schema.index[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		idx[i] = j
	}

	rows := make([][]string, ds.Len())
	for r, rec := range ds.records {
		row := make([]string, len(idx))
		for i, j := range idx {
			if j < len(rec.values) {
				row[i] = rec.values[j]
			}
		}
		rows[r] = row
	}
	return NewDataset(fields, rows)
}
