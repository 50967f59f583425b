package roster

import (
	"fmt"
	"strings"
)

// schema is the field layout shared by every record of a dataset.
type schema struct {
	names []string
	index map[string]int
}

func newSchema(fields []string) (*schema, error) {
	s := &schema{
		names: make([]string, len(fields)),
		index: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			return nil, fmt.Errorf("field %d: empty name", i+1)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		s.names[i] = name
		s.index[name] = i
	}
	return s, nil
}

// Record is one data row. Values are addressed by field name; a field that
// was blank or missing in the source holds the empty string.
type Record struct {
	schema *schema
	values []string
}

// Get returns the value stored under field.
func (r Record) Get(field string) (string, bool) {
	if r.schema == nil {
		return "", false
	}
	i, ok := r.schema.index[field]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Value returns the value stored under field, or "" when the field is unknown.
func (r Record) Value(field string) string {
	v, _ := r.Get(field)
	return v
}

// Values returns the record's values in field order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the record as a plain map, mainly for JSON previews.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	if r.schema == nil {
		return out
	}
	for i, name := range r.schema.names {
		out[name] = r.values[i]
	}
	return out
}

func (r Record) with(i int, value string) Record {
	values := make([]string, len(r.values))
	copy(values, r.values)
	values[i] = value
	return Record{schema: r.schema, values: values}
}

// Dataset is an ordered list of records with a uniform field set.
type Dataset struct {
	schema  *schema
	records []Record
}

// NewDataset validates the field names once and builds records from rows.
// Rows shorter than the header are padded with empty values and longer rows
// are cut to the header width.
func NewDataset(fields []string, rows [][]string) (*Dataset, error) {
	s, err := newSchema(fields)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{schema: s, records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		values := make([]string, len(s.names))
		copy(values, row)
		ds.records = append(ds.records, Record{schema: s, values: values})
	}
	return ds, nil
}

// Fields returns the field names in column order.
func (d *Dataset) Fields() []string {
	out := make([]string, len(d.schema.names))
	copy(out, d.schema.names)
	return out
}

// HasField reports whether field is part of the dataset.
func (d *Dataset) HasField(field string) bool {
	_, ok := d.schema.index[field]
	return ok
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Record returns the i-th record.
func (d *Dataset) Record(i int) Record {
	return d.records[i]
}

// Records returns the records in their current order.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Column returns every value of field in record order.
func (d *Dataset) Column(field string) ([]string, error) {
	i, ok := d.schema.index[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	out := make([]string, len(d.records))
	for j, r := range d.records {
		out[j] = r.values[i]
	}
	return out, nil
}

// Rows returns the values of every record, in field order.
func (d *Dataset) Rows() [][]string {
	out := make([][]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.Values()
	}
	return out
}

// MapField returns a copy of the dataset with fn applied to every value of field.
func (d *Dataset) MapField(field string, fn func(string) string) (*Dataset, error) {
	i, ok := d.schema.index[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	out := &Dataset{schema: d.schema, records: make([]Record, len(d.records))}
	for j, r := range d.records {
		out.records[j] = r.with(i, fn(r.values[i]))
	}
	return out, nil
}

func (d *Dataset) withRecords(records []Record) *Dataset {
	return &Dataset{schema: d.schema, records: records}
}
