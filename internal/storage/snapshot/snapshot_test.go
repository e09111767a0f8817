package snapshot

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/cpldtracker/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() *entity.Snapshot {
	return &entity.Snapshot{
		GeneratedAt: "2024-01-15T10:00:00Z",
		Source:      "dell fetchdriversbyproduct",
		Country:     "en-us",
		Data: entity.ProductResults{
			{
				ProductCode: "r750",
				Record: &entity.ResultRecord{
					Name:        "µSystem CPLD",
					Version:     "1.2",
					ReleaseDate: "2024-01-10",
					DriverID:    "G8J2K",
					DownloadURL: "https://dl.dell.com/r750.exe?a=1&b=2",
					Category:    "Systems Management",
				},
			},
			{ProductCode: "r650", Record: nil},
		},
	}
}

func TestWriteOnlyWhenChanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriterWithFS(fs, "docs/cpld_latest.json", testLogger())

	changed, err := w.Write(testSnapshot())
	require.NoError(t, err)
	require.True(t, changed)

	info, err := fs.Stat("docs/cpld_latest.json")
	require.NoError(t, err)
	mtime := info.ModTime()

	changed, err = w.Write(testSnapshot())
	require.NoError(t, err)
	require.False(t, changed)

	info, err = fs.Stat("docs/cpld_latest.json")
	require.NoError(t, err)
	require.Equal(t, mtime, info.ModTime())

	snap := testSnapshot()
	snap.Data[0].Record.Version = "1.3"
	changed, err = w.Write(snap)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestWriteCreatesParentDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriterWithFS(fs, "deep/nested/dir/out.json", testLogger())

	changed, err := w.Write(testSnapshot())
	require.NoError(t, err)
	require.True(t, changed)

	exists, err := afero.Exists(fs, "deep/nested/dir/out.json")
	require.NoError(t, err)
	require.True(t, exists)
}

// The snapshot file format is load-bearing: ordered keys, 2-space indent,
// no HTML or non-ASCII escaping.
func TestSnapshotFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriterWithFS(fs, "out.json", testLogger())

	_, err := w.Write(testSnapshot())
	require.NoError(t, err)

	got, err := afero.ReadFile(fs, "out.json")
	require.NoError(t, err)

	want := `{
  "generated_at": "2024-01-15T10:00:00Z",
  "source": "dell fetchdriversbyproduct",
  "country": "en-us",
  "data": {
    "r750": {
      "name": "µSystem CPLD",
      "version": "1.2",
      "release_date": "2024-01-10",
      "driver_id": "G8J2K",
      "download_url": "https://dl.dell.com/r750.exe?a=1&b=2",
      "category": "Systems Management"
    },
    "r650": null
  }
}
`
	require.Equal(t, want, string(got))
}

func TestSnapshotKeysKeepConfiguredOrder(t *testing.T) {
	snap := &entity.Snapshot{
		GeneratedAt: "2024-01-15T10:00:00Z",
		Source:      "dell fetchdriversbyproduct",
		Country:     "en-us",
		Data: entity.ProductResults{
			{ProductCode: "zzz"},
			{ProductCode: "aaa"},
			{ProductCode: "mmm"},
		},
	}

	data, err := marshal(snap)
	require.NoError(t, err)

	s := string(data)
	require.Less(t, strings.Index(s, "zzz"), strings.Index(s, "aaa"))
	require.Less(t, strings.Index(s, "aaa"), strings.Index(s, "mmm"))
}
