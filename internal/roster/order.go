package roster

import (
	"fmt"
	"strings"
)

// Order is the fixed priority of colleges in the generated table.
type Order struct {
	labels []string
	pos    map[string]int
}

// NewOrder trims labels and rejects blanks and duplicates.
func NewOrder(labels []string) (Order, error) {
	o := Order{
		labels: make([]string, 0, len(labels)),
		pos:    make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return Order{}, fmt.Errorf("canonical order entry %d is empty", i+1)
		}
		if _, dup := o.pos[l]; dup {
			return Order{}, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		o.pos[l] = len(o.labels)
		o.labels = append(o.labels, l)
	}
	return o, nil
}

// Labels returns the labels in priority order.
func (o Order) Labels() []string {
	out := make([]string, len(o.labels))
	copy(out, o.labels)
	return out
}

// Len returns the number of labels.
func (o Order) Len() int {
	return len(o.labels)
}

// Contains reports whether label is one of the canonical labels.
func (o Order) Contains(label string) bool {
	_, ok := o.pos[label]
	return ok
}

// Group is one contiguous block of the reordered dataset.
type Group struct {
	Label     string `json:"label"`
	Count     int    `json:"count"`
	Canonical bool   `json:"canonical"`
}

// Partition describes how Reorder split a dataset. Groups lists every
// canonical label in priority order, including those with no rows, followed
// by leftover labels in the order they were first seen.
type Partition struct {
	Groups []Group `json:"groups"`
}

// Missing returns canonical labels that matched no row.
func (p Partition) Missing() []string {
	var out []string
	for _, g := range p.Groups {
		if g.Canonical && g.Count == 0 {
			out = append(out, g.Label)
		}
	}
	return out
}

// Leftovers returns the groups whose label is outside the canonical order.
func (p Partition) Leftovers() []Group {
	var out []Group
	for _, g := range p.Groups {
		if !g.Canonical {
			out = append(out, g)
		}
	}
	return out
}

// Matched returns how many rows fell into canonical groups.
func (p Partition) Matched() int {
	n := 0
	for _, g := range p.Groups {
		if g.Canonical {
			n += g.Count
		}
	}
	return n
}

// Total returns the number of rows across all groups.
func (p Partition) Total() int {
	n := 0
	for _, g := range p.Groups {
		n += g.Count
	}
	return n
}

// Reorder returns the dataset regrouped by the value of field: every
// canonical label in order, then every other label in first-seen order.
// Rows keep their relative order inside a group, and each input row appears
// in the output exactly once. Values are compared as stored, so field
// should already be normalized.
func Reorder(ds *Dataset, field string, order Order) (*Dataset, Partition, error) {
	col, err := ds.Column(field)
	if err != nil {
		return nil, Partition{}, err
	}

	buckets := make(map[string][]int)
	var leftovers []string
	for i, label := range col {
		if _, seen := buckets[label]; !seen && !order.Contains(label) {
			leftovers = append(leftovers, label)
		}
		buckets[label] = append(buckets[label], i)
	}

	records := make([]Record, 0, ds.Len())
	part := Partition{Groups: make([]Group, 0, order.Len()+len(leftovers))}

	for _, label := range order.labels {
		idx := buckets[label]
		for _, i := range idx {
			records = append(records, ds.records[i])
		}
		part.Groups = append(part.Groups, Group{Label: label, Count: len(idx), Canonical: true})
	}
	for _, label := range leftovers {
		idx := buckets[label]
		for _, i := range idx {
			records = append(records, ds.records[i])
		}
		part.Groups = append(part.Groups, Group{Label: label, Count: len(idx)})
	}

	if len(records) != ds.Len() {
		return nil, Partition{}, fmt.Errorf("reorder lost rows: got %d, want %d", len(records), ds.Len())
	}
	return ds.withRecords(records), part, nil
}
