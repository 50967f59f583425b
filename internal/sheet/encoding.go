package sheet

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize bounds how much of a CSV upload is inspected to pick the text
// encoding and the delimiter.
const sniffSize = 64 << 10

// Encoding is the character set a CSV upload was decoded with.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingGB18030 Encoding = "gb18030"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// textProfile is what the sniffing pass learned about a CSV upload.
type textProfile struct {
	encoding Encoding
	comma    rune
}

// sniffText reads the head of src and rewinds it. Files saved by Excel on a
// Chinese Windows locale are GB18030 without a BOM, so anything that is not
// valid UTF-8 and carries no BOM is treated as GB18030.
func sniffText(src io.ReadSeeker) (textProfile, error) {
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(src, buf)
	truncated := err == nil
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return textProfile{}, err
	}
	buf = buf[:n]
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return textProfile{}, err
	}

	p := textProfile{encoding: EncodingUTF8}
	switch {
	case bytes.HasPrefix(buf, bomUTF8), bytes.HasPrefix(buf, bomUTF16LE), bytes.HasPrefix(buf, bomUTF16BE):
	case !looksUTF8(buf, truncated):
		p.encoding = EncodingGB18030
	}

	r := transform.NewReader(bytes.NewReader(buf), decoder(p.encoding))
	head, _ := io.ReadAll(r)
	p.comma = sniffDelimiter(string(head))
	return p, nil
}

// looksUTF8 tolerates a multi-byte rune cut off by the sniff window.
func looksUTF8(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

// decoder returns a transformer that honours a leading BOM and otherwise
// decodes with enc. Invalid UTF-8 becomes U+FFFD.
func decoder(enc Encoding) transform.Transformer {
	switch enc {
	case EncodingGB18030:
		return unicode.BOMOverride(simplifiedchinese.GB18030.NewDecoder())
	default:
		return unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}
}

// sniffDelimiter picks the most frequent of comma, tab and semicolon on the
// first line, defaulting to comma.
func sniffDelimiter(head string) rune {
	line := head
	if i := strings.IndexAny(head, "\r\n"); i >= 0 {
		line = head[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{'\t', ';'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// cleanCell trims a cell and unwraps the ="..." form Excel uses to keep
// leading zeros in exported CSV.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}
