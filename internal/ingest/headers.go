package ingest

import "strings"

// canonicalColumns are the columns Ingest requires after header
// normalization and synonym mapping; their absence is a SchemaError.
var canonicalColumns = []string{"sr_number", "open_ts", "sr_type", "region", "exc_id"}

// synonyms maps a canonical column name to the variant spellings seen in
// the wild. The first matching synonym found in a file's header wins.
var synonyms = map[string][]string{
	"sr_row_id": {"id", "row_id", "record_id", "row", "sr_id", "sr_row", "rowid"},
	"open_ts":   {"date", "time", "open_date", "opened", "timestamp", "created_at", "open_dttm", "occurrence_time", "sr_open_dttm"},
	"sr_type":   {"type", "complaint_type", "category", "order_type"},
	"region":    {"location", "zone", "area", "region_name"},
	"exc_id":    {"exchange", "exc", "exchange_id", "excid"},
	"close_ts":  {"sr_close_dttm", "close_date", "closed", "resolved_at"},
	"priority":  {"sr_prio_cd"},
	"sr_status": {"status"},
}

// normalizeHeader lowercases, trims, and replaces spaces with underscores,
// matching the header-normalization rule.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// mapHeaders normalizes every header and applies the synonym table,
// returning the canonical header name for each input column in order.
// Unknown columns are retained under their normalized name but are unused
// downstream.
func mapHeaders(raw []string) []string {
	normalized := make([]string, len(raw))
	for i, h := range raw {
		normalized[i] = normalizeHeader(h)
	}

	present := make(map[string]bool, len(normalized))
	for _, h := range normalized {
		present[h] = true
	}

	out := make([]string, len(normalized))
	copy(out, normalized)
	for target, matches := range synonyms {
		if present[target] {
			continue
		}
		for i, h := range normalized {
			for _, m := range matches {
				if h == m {
					out[i] = target
					present[target] = true
					goto next
				}
			}
		}
	next:
	}
	return out
}

// missingColumns reports which canonical columns are absent from a mapped
// header set.
func missingColumns(mapped []string) []string {
	present := make(map[string]bool, len(mapped))
	for _, h := range mapped {
		present[h] = true
	}
	var missing []string
	for _, c := range canonicalColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
