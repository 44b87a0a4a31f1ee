package songbook

import (
	"strconv"
	"strings"
)

// Column identifies a workbook column independent of the header spelling.
type Column int

// Canonical columns. The order matches the groupbook sheet layout.
const (
	ColumnID Column = iota
	ColumnChordAI
	ColumnName
	ColumnArtist
	ColumnChorusStart
	ColumnChorusEnd
	ColumnSegmentCut
	ColumnKey
	ColumnBPM
	ColumnGender
	ColumnProduct
)

// String returns the canonical English header for the column.
func (c Column) String() string {
	switch c {
	case ColumnID:
		return "ID"
	case ColumnChordAI:
		return "Chord AI"
	case ColumnName:
		return "Name"
	case ColumnArtist:
		return "Artist"
	case ColumnChorusStart:
		return "Chorus Start"
	case ColumnChorusEnd:
		return "Chorus End"
	case ColumnSegmentCut:
		return "Segment Cut"
	case ColumnKey:
		return "Key"
	case ColumnBPM:
		return "BPM"
	case ColumnGender:
		return "Gender"
	case ColumnProduct:
		return "Product"
	default:
		return "Unknown"
	}
}

// columnAliases maps normalized header spellings to canonical columns.
// Workbooks produced by earlier versions of the toolchain carry Chinese
// headers, so both spellings resolve to the same column.
//
//nolint:gochecknoglobals // Read-only lookup table.
var columnAliases = map[string]Column{
	"id":           ColumnID,
	"chord ai":     ColumnChordAI,
	"name":         ColumnName,
	"歌名":           ColumnName,
	"artist":       ColumnArtist,
	"歌手":           ColumnArtist,
	"歌手名":          ColumnArtist,
	"chorus start": ColumnChorusStart,
	"副歌开始时间":       ColumnChorusStart,
	"chorus end":   ColumnChorusEnd,
	"副歌结束时间":       ColumnChorusEnd,
	"segment cut":  ColumnSegmentCut,
	"段落剪切时间":       ColumnSegmentCut,
	"key":          ColumnKey,
	"调号":           ColumnKey,
	"bpm":          ColumnBPM,
	"速度":           ColumnBPM,
	"gender":       ColumnGender,
	"sex":          ColumnGender,
	"性别":           ColumnGender,
	"product":      ColumnProduct,
	"成品名":          ColumnProduct,
}

// resolveColumns maps a header row to cell indexes per canonical column.
// The first occurrence of a column wins.
func resolveColumns(header []string) map[Column]int {
	resolved := make(map[Column]int, len(header))

	for i, cell := range header {
		col, ok := columnAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}

		if _, taken := resolved[col]; !taken {
			resolved[col] = i
		}
	}

	return resolved
}

// cellAt returns the trimmed cell at the resolved column, or "" when the
// column is absent or the row is shorter than the header.
func cellAt(row []string, resolved map[Column]int, col Column) string {
	idx, ok := resolved[col]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// normalizeID canonicalizes an ID cell: spreadsheet numerics like "10001.0"
// become "10001" so filename lookups are stable across tools.
func normalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}

	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}

	return s
}
