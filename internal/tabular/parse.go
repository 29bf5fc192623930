package tabular

import "strings"

// bom is the UTF-8 byte-order mark some exports prepend.
const bom = "\ufeff"

// Parse converts raw comma-delimited text into records. The first
// physical row is the header; each later row becomes one Record.
//
// The scanner is deliberately best-effort and never fails:
//
//   - a field wrapped in double quotes may contain literal commas and
//     line breaks;
//   - a doubled double-quote yields one literal quote character;
//   - unbalanced quoting degrades to whatever the state machine makes
//     of it rather than aborting the whole table;
//   - rows with fewer cells than headers are padded with "";
//   - rows whose cells are all empty or whitespace are dropped.
//
// encoding/csv is not usable here: it rejects bare quotes and ragged
// rows, and a single malformed row would discard an entire table that
// this system is required to render best-effort.
func Parse(text string) []Record {
	text = strings.TrimPrefix(text, bom)

	var rows [][]string
	var current []string
	var value strings.Builder
	inQuotes := false

	pushValue := func() {
		current = append(current, value.String())
		value.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '"' && i+1 < len(runes) && runes[i+1] == '"' {
			value.WriteRune('"')
			i++
			continue
		}
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes && (c == ',' || c == '\n') {
			pushValue()
			if c == '\n' {
				rows = append(rows, current)
				current = nil
			}
			continue
		}
		value.WriteRune(c)
	}
	if value.Len() > 0 || len(current) > 0 {
		pushValue()
		rows = append(rows, current)
	}

	if len(rows) == 0 {
		return nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, NewRecord(headers, row))
	}
	return records
}

// blankRow reports whether every cell is empty or whitespace. Such
// rows are dropped entirely instead of being emitted as empty records.
func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
