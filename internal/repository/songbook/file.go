package songbook

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/oshokin/mashup-tool/internal/domain/song"
)

// defaultSheetName is the sheet excelize creates in a fresh workbook.
const defaultSheetName = "Sheet1"

// groupbookColumns is the groupbook sheet layout, left to right.
//
//nolint:gochecknoglobals // Read-only lookup table.
var groupbookColumns = []Column{
	ColumnID,
	ColumnChordAI,
	ColumnName,
	ColumnArtist,
	ColumnChorusStart,
	ColumnChorusEnd,
	ColumnSegmentCut,
	ColumnKey,
	ColumnBPM,
	ColumnGender,
	ColumnProduct,
}

// columnWidths sizes the groupbook columns the way the studio expects them.
//
//nolint:gochecknoglobals // Read-only lookup table.
var columnWidths = map[string]float64{
	"A": 12, "B": 15, "C": 25, "D": 20, "E": 15,
	"F": 15, "G": 15, "H": 10, "I": 10, "J": 10, "K": 40,
}

// FileRepository reads and writes workbooks on the local filesystem.
type FileRepository struct{}

// NewFileRepository creates a workbook repository.
func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// ReadSongbook loads the songs from the first sheet of the workbook.
// Key and BPM values are parsed best-effort: rows with unusable values are
// kept with UnknownKey or zero BPM and callers decide how strict to be.
func (r *FileRepository) ReadSongbook(_ context.Context, path string) ([]song.Song, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open songbook: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, ErrNoSongs
	}

	rows, err := f.GetRows(sheetNames[0])
	if err != nil {
		return nil, fmt.Errorf("read songbook rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, ErrNoSongs
	}

	resolved := resolveColumns(rows[0])
	for _, required := range []Column{ColumnName, ColumnKey, ColumnBPM} {
		if _, ok := resolved[required]; !ok {
			return nil, errMissingColumns
		}
	}

	songs := make([]song.Song, 0, len(rows)-1)

	for i, row := range rows[1:] {
		if rowEmpty(row, resolved) {
			continue
		}

		s := parseSong(row, resolved)
		if s.ID == "" {
			// The original songbook may omit IDs; the row ordinal stands in.
			s.ID = strconv.Itoa(i + 1)
		}

		songs = append(songs, s)
	}

	if len(songs) == 0 {
		return nil, ErrNoSongs
	}

	return songs, nil
}

// WriteGroupbook renders one styled sheet per group with at least two songs.
// Each match becomes a two-row block, the anchor on top, with the product
// name merged vertically in the last column.
func (r *FileRepository) WriteGroupbook(ctx context.Context, path string, groups []song.Group) error {
	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	styles, err := newGroupbookStyles(f)
	if err != nil {
		return err
	}

	var (
		namer      = newSheetNamer()
		firstSheet string
		rendered   int
	)

	for i := range groups {
		g := &groups[i]
		if g.Size() < 2 {
			continue
		}

		if err = ctx.Err(); err != nil {
			return err
		}

		name := namer.name(g.Anchor.Name, i+1)
		if _, err = f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}

		if rendered == 0 {
			firstSheet = name
		}

		rendered++

		if err = writeGroupSheet(f, name, g, styles); err != nil {
			return err
		}
	}

	if rendered == 0 {
		return ErrNoGroups
	}

	if err = f.DeleteSheet(defaultSheetName); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	index, err := f.GetSheetIndex(firstSheet)
	if err != nil {
		return fmt.Errorf("locate first sheet: %w", err)
	}

	f.SetActiveSheet(index)

	if err = f.SaveAs(path); err != nil {
		return fmt.Errorf("save groupbook: %w", err)
	}

	return nil
}

// ReadGroupbook loads every sheet of a groupbook in workbook order.
// Sheets keep whatever columns they carry; consumers check Sheet.Columns.
func (r *FileRepository) ReadGroupbook(ctx context.Context, path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open groupbook: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	sheetNames := f.GetSheetList()
	sheets := make([]Sheet, 0, len(sheetNames))

	for _, name := range sheetNames {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		sheet := Sheet{
			Name:    name,
			Columns: make(map[Column]bool),
		}

		if len(rows) == 0 {
			sheets = append(sheets, sheet)
			continue
		}

		resolved := resolveColumns(rows[0])
		for col := range resolved {
			sheet.Columns[col] = true
		}

		for _, row := range rows[1:] {
			if rowEmpty(row, resolved) {
				continue
			}

			sheet.Songs = append(sheet.Songs, parseSong(row, resolved))

			if p := cellAt(row, resolved, ColumnProduct); p != "" {
				sheet.Products = append(sheet.Products, p)
			}
		}

		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// parseSong converts one data row into a Song with best-effort key and BPM parsing.
func parseSong(row []string, resolved map[Column]int) song.Song {
	keyText := cellAt(row, resolved, ColumnKey)
	keyNum, _ := song.ParseKey(keyText)

	bpm, err := strconv.ParseFloat(cellAt(row, resolved, ColumnBPM), 64)
	if err != nil || bpm < 0 {
		bpm = 0
	}

	return song.Song{
		ID:          normalizeID(cellAt(row, resolved, ColumnID)),
		Name:        cellAt(row, resolved, ColumnName),
		Artist:      cellAt(row, resolved, ColumnArtist),
		Gender:      cellAt(row, resolved, ColumnGender),
		ChordAI:     cellAt(row, resolved, ColumnChordAI),
		ChorusStart: cellAt(row, resolved, ColumnChorusStart),
		ChorusEnd:   cellAt(row, resolved, ColumnChorusEnd),
		SegmentCut:  cellAt(row, resolved, ColumnSegmentCut),
		Key:         keyText,
		KeyNum:      keyNum,
		BPM:         bpm,
	}
}

// rowEmpty reports whether every resolved column of the row is blank.
func rowEmpty(row []string, resolved map[Column]int) bool {
	for col := range resolved {
		if cellAt(row, resolved, col) != "" {
			return false
		}
	}

	return true
}

// writeGroupSheet writes the header, pair blocks and column widths of one sheet.
func writeGroupSheet(f *excelize.File, sheet string, g *song.Group, styles *groupbookStyles) error {
	headers := make([]interface{}, 0, len(groupbookColumns))
	for _, col := range groupbookColumns {
		headers = append(headers, col.String())
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	if err := f.SetCellStyle(sheet, "A1", "J1", styles.header); err != nil {
		return fmt.Errorf("style header row: %w", err)
	}

	if err := f.SetCellStyle(sheet, "K1", "K1", styles.productHeader); err != nil {
		return fmt.Errorf("style product header: %w", err)
	}

	row := 2
	for i := range g.Matches {
		if err := writePairBlock(f, sheet, row, &g.Anchor, &g.Matches[i], styles); err != nil {
			return err
		}

		row += 2
	}

	for letter, width := range columnWidths {
		if err := f.SetColWidth(sheet, letter, letter, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	return nil
}

// writePairBlock writes one anchor+match block with the merged product cell.
func writePairBlock(f *excelize.File, sheet string, row int, anchor, match *song.Song, styles *groupbookStyles) error {
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), songRow(anchor)); err != nil {
		return fmt.Errorf("write anchor row: %w", err)
	}

	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row+1), songRow(match)); err != nil {
		return fmt.Errorf("write match row: %w", err)
	}

	var (
		top    = fmt.Sprintf("K%d", row)
		bottom = fmt.Sprintf("K%d", row+1)
	)

	if err := f.MergeCell(sheet, top, bottom); err != nil {
		return fmt.Errorf("merge product cell: %w", err)
	}

	if err := f.SetCellValue(sheet, top, anchor.Name+"+"+match.Name); err != nil {
		return fmt.Errorf("write product name: %w", err)
	}

	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row+1), styles.body); err != nil {
		return fmt.Errorf("style pair block: %w", err)
	}

	if err := f.SetCellStyle(sheet, top, bottom, styles.product); err != nil {
		return fmt.Errorf("style product cell: %w", err)
	}

	return nil
}

// songRow lays out one song as a groupbook row, without the product column.
func songRow(s *song.Song) *[]interface{} {
	return &[]interface{}{
		idCell(s.ID),
		s.ChordAI,
		s.Name,
		s.Artist,
		s.ChorusStart,
		s.ChorusEnd,
		s.SegmentCut,
		s.Key,
		s.BPM,
		s.Gender,
	}
}

// idCell writes whole-number IDs as numbers so spreadsheets show 10001, not "10001".
func idCell(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}

	return id
}

// groupbookStyles holds the style IDs used by the groupbook writer.
type groupbookStyles struct {
	// header is the yellow bold centered style of the original columns.
	header int
	// productHeader is the green bold centered style of the product column.
	productHeader int
	// body is the bordered left-aligned style of the data cells.
	body int
	// product is the bordered wrapping style of the merged product cells.
	product int
}

// newGroupbookStyles registers the four cell styles on the workbook.
func newGroupbookStyles(f *excelize.File) (*groupbookStyles, error) {
	thinBorders := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Border:    thinBorders,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFD700"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	productHeader, err := f.NewStyle(&excelize.Style{
		Border:    thinBorders,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"90EE90"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create product header style: %w", err)
	}

	body, err := f.NewStyle(&excelize.Style{
		Border:    thinBorders,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}

	product, err := f.NewStyle(&excelize.Style{
		Border:    thinBorders,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create product style: %w", err)
	}

	return &groupbookStyles{
		header:        header,
		productHeader: productHeader,
		body:          body,
		product:       product,
	}, nil
}
