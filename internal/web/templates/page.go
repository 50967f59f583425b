// Package templates holds the HTML components of the web UI. Components are
// written in .templ files; run `templ generate` after editing them.
package templates

// Option is one entry of a select box.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// IndexData fills the upload form.
type IndexData struct {
	Kinds         []Option
	WorkTimes     []Option
	Outputs       []Option
	Organization  string
	SignatureDate string
	MaxFileSizeMB int64
	// Order is the canonical college order, shown for reference.
	Order []string
}
