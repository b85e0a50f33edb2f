package ingest

import "fmt"

// SchemaError is returned when a required canonical column is absent after
// header normalization and synonym mapping. Non-retriable.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("ingest: schema validation failed, missing columns %v (found %v)", e.Missing, e.Found)
}

// DateParseError is returned when every row's open_ts failed to parse,
// leaving zero rows after the date-parse drop.
type DateParseError struct {
	RawSample string
	RowsRead  int
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("ingest: no rows survived date parsing out of %d read (raw sample: %q)", e.RowsRead, e.RawSample)
}

// EncodingError is returned when no attempted encoding produced a
// non-empty, multi-column frame.
type EncodingError struct {
	Attempted []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ingest: no encoding produced a usable frame (attempted %v)", e.Attempted)
}
