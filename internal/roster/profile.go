package roster

import (
	"fmt"
	"strings"
)

// Profile is the deployment's ordering configuration. It is built once at
// startup and only read afterwards, so one value can serve concurrent uploads.
type Profile struct {
	// CategoryField is the literal name of the college column, e.g. "学院".
	CategoryField string
	// Markers are extra spellings used to spot the column and the header row.
	Markers []string
	Order   Order
	Aliases Aliases
}

// NewProfile validates order and aliases and returns warnings for alias
// targets outside the canonical order; rows resolved to such a target end
// up among the leftovers.
func NewProfile(field string, markers, order []string, aliases map[string]string) (Profile, []string, error) {
	o, err := NewOrder(order)
	if err != nil {
		return Profile{}, nil, err
	}
	a, err := NewAliases(aliases)
	if err != nil {
		return Profile{}, nil, err
	}

	var warnings []string
	for _, target := range a.Targets() {
		if !o.Contains(target) {
			warnings = append(warnings, fmt.Sprintf("alias target %q is not in the canonical order", target))
		}
	}

	cleaned := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			cleaned = append(cleaned, m)
		}
	}

	return Profile{
		CategoryField: strings.TrimSpace(field),
		Markers:       cleaned,
		Order:         o,
		Aliases:       a,
	}, warnings, nil
}

// HeaderMarkers are the cell texts used to probe for the header row: the
// category field followed by the markers, without duplicates.
func (p Profile) HeaderMarkers() []string {
	out := make([]string, 0, len(p.Markers)+1)
	seen := make(map[string]bool, len(p.Markers)+1)
	for _, m := range append([]string{p.CategoryField}, p.Markers...) {
		f := Fold(m)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, m)
	}
	return out
}

// Result is the outcome of running a dataset through a profile.
type Result struct {
	Dataset       *Dataset
	CategoryField string
	// Labels are the distinct college values after normalization, in the
	// order they first appear in the upload.
	Labels    []string
	Partition Partition
}

// Apply resolves the category column (override first, if given), normalizes
// it and reorders the dataset.
func (p Profile) Apply(ds *Dataset, override string) (*Result, error) {
	field := strings.TrimSpace(override)
	if field != "" {
		if !ds.HasField(field) {
			return nil, fmt.Errorf("%w: %q", ErrMissingCategoryField, field)
		}
	} else {
		f, err := FindField(ds.Fields(), p.CategoryField, p.Markers)
		if err != nil {
			return nil, err
		}
		field = f
	}

	normalized, err := ds.MapField(field, func(v string) string {
		return Normalize(v, p.Aliases)
	})
	if err != nil {
		return nil, err
	}

	ordered, part, err := Reorder(normalized, field, p.Order)
	if err != nil {
		return nil, err
	}
	if ordered.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	col, _ := normalized.Column(field)
	seen := make(map[string]bool, len(col))
	var labels []string
	for _, v := range col {
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}

	return &Result{
		Dataset:       ordered,
		CategoryField: field,
		Labels:        labels,
		Partition:     part,
	}, nil
}
