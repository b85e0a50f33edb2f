package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// frame is a minimally-parsed delimited file: header plus rows, all still
// raw strings.
type frame struct {
	header []string
	rows   [][]string
}

func (f frame) width() int { return len(f.header) }
func (f frame) empty() bool { return len(f.rows) == 0 }

// encodingAttempt names one decoder tried in order, matching the ordered
// parsing-strategy list.
type encodingAttempt struct {
	name string
	dec  encoding.Encoding // nil means "already UTF-8, no transform needed"
}

var encodingAttempts = []encodingAttempt{
	{name: "UTF-8", dec: nil},
	{name: "UTF-8-BOM", dec: unicode.UTF8BOM},
	{name: "Latin-1", dec: charmap.ISO8859_1},
	{name: "CP1252", dec: charmap.Windows1252},
	{name: "UTF-16", dec: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
}

var delimiterAttempts = []rune{';', '\t', '|'}

// ParseResult carries the diagnostics payload the design requires:
// inferred encoding/delimiter and a sample of the first raw/parsed values.
type ParseResult struct {
	Frame         frame
	Encoding      string
	Delimiter     rune
	RowsRead      int
	FirstRawValue string
}

// ParseFile runs the full parsing strategy over path: encodings in order
// with comma delimiter first; if the winning parse has width 1, retry the
// same encoding with semicolon/tab/pipe.
func ParseFile(path string) (ParseResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{}, err
	}

	var attempted []string
	for _, enc := range encodingAttempts {
		attempted = append(attempted, enc.name)
		decoded, decErr := decode(raw, enc.dec)
		if decErr != nil {
			continue
		}

		f, parseErr := parseDelimited(decoded, ',')
		if parseErr != nil || f.empty() {
			continue
		}

		delim := ','
		if f.width() == 1 {
			for _, d := range delimiterAttempts {
				if retried, retryErr := parseDelimited(decoded, d); retryErr == nil && retried.width() > f.width() {
					f = retried
					delim = d
					break
				}
			}
		}

		result := ParseResult{
			Frame:     f,
			Encoding:  enc.name,
			Delimiter: delim,
			RowsRead:  len(f.rows),
		}
		if len(f.rows) > 0 {
			result.FirstRawValue = firstCellOf(f, "open_ts")
		}
		return result, nil
	}

	return ParseResult{}, &EncodingError{Attempted: attempted}
}

// decode applies dec to raw. A nil dec means "treat as already UTF-8": csv
// parsing alone can't tell Latin-1/CP1252 bytes from valid UTF-8 (it splits
// on delimiter bytes without validating field content), so this is the one
// place the plain-UTF-8 attempt can actually fail and fall through to the
// next encoding in the attempt order. The UTF-8-BOM attempt gets the same
// check, because its decoder would otherwise replace invalid bytes with
// U+FFFD instead of failing.
func decode(raw []byte, dec encoding.Encoding) ([]byte, error) {
	if dec == nil {
		if !utf8.Valid(raw) {
			return nil, errors.New("ingest: not valid UTF-8")
		}
		return raw, nil
	}
	if dec == unicode.UTF8BOM && !utf8.Valid(raw) {
		return nil, errors.New("ingest: not valid UTF-8")
	}
	reader := transform.NewReader(bytes.NewReader(raw), dec.NewDecoder())
	return io.ReadAll(reader)
}

func parseDelimited(data []byte, delim rune) (frame, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil || len(records) == 0 {
		return frame{}, err
	}

	return frame{header: records[0], rows: records[1:]}, nil
}

func firstCellOf(f frame, canonicalCol string) string {
	mapped := mapHeaders(f.header)
	idx := -1
	for i, h := range mapped {
		if h == canonicalCol {
			idx = i
			break
		}
	}
	if idx == -1 || len(f.rows) == 0 || idx >= len(f.rows[0]) {
		return ""
	}
	return f.rows[0][idx]
}
