package document

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fumiama/go-docx"
)

// ErrNoColumns is returned when a form would have an empty table.
var ErrNoColumns = errors.New("no columns selected")

// Font sizes in half-points, the unit docx uses.
const (
	sizeTitle      = "44" // 22pt
	sizeSalutation = "24" // 12pt
	sizeHeader     = "22" // 11pt
	sizeBody       = "21" // 10.5pt

	// bodyIndent is a two-character first-line indent at 10.5pt, in twips.
	bodyIndent = 420
)

// Salutation opens every form.
const Salutation = "各二级学院："

// Style holds the typefaces of a form.
type Style struct {
	BodyFont  string
	TitleFont string
}

// DefaultStyle matches the office's printed forms.
var DefaultStyle = Style{BodyFont: "宋体", TitleFont: "黑体"}

// Request is everything one rendered form needs. Rows are printed in the
// order given; ordering is the caller's job.
type Request struct {
	Kind         Kind
	Meta         Metadata
	Columns      []string
	Rows         [][]string
	Organization string
	Style        Style
}

// Build lays out the form in memory.
func Build(req Request) (*docx.Docx, error) {
	meta := req.Meta.Trimmed()
	if err := meta.Validate(req.Kind); err != nil {
		return nil, err
	}
	if len(req.Columns) == 0 {
		return nil, ErrNoColumns
	}
	style := req.Style
	if style.BodyFont == "" {
		style.BodyFont = DefaultStyle.BodyFont
	}
	if style.TitleFont == "" {
		style.TitleFont = DefaultStyle.TitleFont
	}

	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph().Justification("center")
	font(title.AddText(req.Kind.Title()), style.TitleFont).Size(sizeTitle).Bold()
	doc.AddParagraph()

	font(doc.AddParagraph().AddText(Salutation), style.BodyFont).Size(sizeSalutation).Bold()

	first, second := variants[req.Kind].body(meta)
	for _, text := range []string{first, second} {
		p := doc.AddParagraph()
		p.Properties = &docx.ParagraphProperties{Ind: &docx.Ind{FirstLine: bodyIndent}}
		font(p.AddText(text), style.BodyFont).Size(sizeBody)
	}

	doc.AddParagraph()
	addTable(doc, req.Columns, req.Rows, style)
	doc.AddParagraph()

	sig := doc.AddParagraph().Justification("end")
	if org := strings.TrimSpace(req.Organization); org != "" {
		font(sig.AddText(org+"\n"), style.BodyFont).Size(sizeBody).Bold()
	}
	font(sig.AddText(meta.SignatureDate), style.BodyFont).Size(sizeBody)

	return doc, nil
}

// Render writes the form as a .docx stream.
func Render(w io.Writer, req Request) error {
	doc, err := Build(req)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addTable(doc *docx.Docx, columns []string, rows [][]string, style Style) {
	tbl := doc.AddTable(len(rows)+1, len(columns), 0, nil)
	tbl.TableProperties.Width = &docx.WTableWidth{W: 5000, Type: "pct"}
	tbl.Justification("center")

	for j, col := range columns {
		p := tbl.TableRows[0].TableCells[j].AddParagraph().Justification("center")
		font(p.AddText(col), style.BodyFont).Size(sizeHeader).Bold()
	}
	for i, row := range rows {
		cells := tbl.TableRows[i+1].TableCells
		for j := range columns {
			v := ""
			if j < len(row) {
				v = row[j]
			}
			p := cells[j].AddParagraph().Justification("center")
			font(p.AddText(v), style.BodyFont).Size(sizeBody)
		}
	}
}

func font(r *docx.Run, name string) *docx.Run {
	return r.Font(name, name, name, "eastAsia")
}

// Filename is the download name of a form, e.g. "公假单_迎新晚会_20240312.docx".
func Filename(k Kind, m Metadata, now time.Time) string {
	return BaseName(k, m, now) + ".docx"
}

// BaseName is Filename without the extension. Unknown kinds get "名单".
func BaseName(k Kind, m Metadata, now time.Time) string {
	label := k.Label()
	if label == "" {
		label = "名单"
	}
	name := sanitizeFilename(strings.TrimSpace(m.ActivityName))
	if name == "" {
		name = "活动"
	}
	return fmt.Sprintf("%s_%s_%s", label, name, now.Format("20060102"))
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "", "<", "", ">", "", "|", "_", "\n", " ", "\r", "",
)

func sanitizeFilename(s string) string {
	return filenameReplacer.Replace(s)
}
