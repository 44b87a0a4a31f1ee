package songbook

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oshokin/mashup-tool/internal/domain/song"
)

// writeTestWorkbook builds a single-sheet workbook for reader tests.
func writeTestWorkbook(t *testing.T, path string, headers []interface{}, rows ...[]interface{}) {
	t.Helper()

	f := excelize.NewFile()

	defer func() {
		_ = f.Close()
	}()

	require.NoError(t, f.SetSheetRow(defaultSheetName, "A1", &headers))

	for i := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		require.NoError(t, f.SetSheetRow(defaultSheetName, cell, &rows[i]))
	}

	require.NoError(t, f.SaveAs(path))
}

// TestReadSongbookAliases reads a songbook with Chinese headers and mixed cell types.
func TestReadSongbookAliases(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "songbook.xlsx")
	writeTestWorkbook(t, path,
		[]interface{}{"ID", "歌名", "歌手", "调号", "速度", "性别"},
		[]interface{}{10001, "晴天", "Jay", "Am", 74, "男"},
		[]interface{}{"", "Second", "Ann", "C#", 98.5, "female"},
		[]interface{}{10003, "Broken", "Bob", "H", "fast", "male"},
	)

	repo := NewFileRepository()

	songs, err := repo.ReadSongbook(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, songs, 3)

	require.Equal(t, "10001", songs[0].ID)
	require.Equal(t, "晴天", songs[0].Name)
	require.Equal(t, "Jay", songs[0].Artist)
	require.Equal(t, "Am", songs[0].Key)
	require.Equal(t, 9, songs[0].KeyNum)
	require.InDelta(t, 74.0, songs[0].BPM, 0.001)

	// Missing ID falls back to the row ordinal.
	require.Equal(t, "2", songs[1].ID)
	require.Equal(t, 1, songs[1].KeyNum)
	require.InDelta(t, 98.5, songs[1].BPM, 0.001)

	// Unusable key and BPM are kept for the caller to reject.
	require.Equal(t, song.UnknownKey, songs[2].KeyNum)
	require.Zero(t, songs[2].BPM)
	require.False(t, songs[2].Usable())
}

// TestReadSongbookMissingColumns rejects workbooks without the required headers.
func TestReadSongbookMissingColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "songbook.xlsx")
	writeTestWorkbook(t, path,
		[]interface{}{"ID", "Name", "Artist"},
		[]interface{}{1, "Only Names", "Nobody"},
	)

	repo := NewFileRepository()

	_, err := repo.ReadSongbook(context.Background(), path)
	require.ErrorIs(t, err, errMissingColumns)
}

// TestReadSongbookEmpty rejects workbooks without data rows.
func TestReadSongbookEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "songbook.xlsx")
	writeTestWorkbook(t, path, []interface{}{"Name", "Key", "BPM"})

	repo := NewFileRepository()

	_, err := repo.ReadSongbook(context.Background(), path)
	require.ErrorIs(t, err, ErrNoSongs)
}

// TestGroupbookRoundtrip writes groups and reads the sheets back, checking the
// pair-block layout, the merged product names and the sheet name deduplication.
func TestGroupbookRoundtrip(t *testing.T) {
	t.Parallel()

	var (
		anchor = song.Song{ID: "10001", Name: "Anchor", Artist: "A", Key: "C", KeyNum: 0, BPM: 100, Gender: "female"}
		first  = song.Song{ID: "10002", Name: "First", Artist: "B", Key: "D", KeyNum: 2, BPM: 103, Gender: "female"}
		second = song.Song{ID: "10003", Name: "Second", Artist: "C", Key: "Bb", KeyNum: 10, BPM: 97, Gender: "female"}
	)

	groups := []song.Group{
		{Anchor: anchor, Matches: []song.Song{first, second}},
		{Anchor: second},
		{Anchor: anchor, Matches: []song.Song{first}},
	}

	path := filepath.Join(t.TempDir(), "groups.xlsx")
	repo := NewFileRepository()

	require.NoError(t, repo.WriteGroupbook(context.Background(), path, groups))

	sheets, err := repo.ReadGroupbook(context.Background(), path)
	require.NoError(t, err)

	// The singleton group is not rendered.
	require.Len(t, sheets, 2)
	require.Equal(t, "Anchor", sheets[0].Name)
	require.Equal(t, "Anchor_1", sheets[1].Name)

	require.True(t, sheets[0].HasColumns(ColumnID, ColumnName, ColumnKey, ColumnBPM, ColumnProduct))

	// Two blocks of anchor+match rows.
	require.Len(t, sheets[0].Songs, 4)
	require.Equal(t, []string{"10001", "10002", "10001", "10003"}, []string{
		sheets[0].Songs[0].ID,
		sheets[0].Songs[1].ID,
		sheets[0].Songs[2].ID,
		sheets[0].Songs[3].ID,
	})

	// Merged product cells surface once per block.
	require.Equal(t, []string{"Anchor+First", "Anchor+Second"}, sheets[0].Products)

	// Key text and BPM survive the round trip.
	require.Equal(t, "Bb", sheets[0].Songs[3].Key)
	require.Equal(t, 10, sheets[0].Songs[3].KeyNum)
	require.InDelta(t, 97.0, sheets[0].Songs[3].BPM, 0.001)
}

// TestWriteGroupbookWithoutPairs refuses to render a workbook with no usable group.
func TestWriteGroupbookWithoutPairs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "groups.xlsx")
	repo := NewFileRepository()

	err := repo.WriteGroupbook(context.Background(), path, []song.Group{
		{Anchor: song.Song{ID: "1", Name: "Alone"}},
	})
	require.ErrorIs(t, err, ErrNoGroups)
}
