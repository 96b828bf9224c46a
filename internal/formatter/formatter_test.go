package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	tu "github.com/desertthunder/jamroom/internal/testing"
)

func testExport() *models.RoomExport {
	return &models.RoomExport{
		Room: models.Room{ID: "r1", Code: "AB12", Name: "Friday Night", IsPrivate: true},
		Queue: models.Queue{
			{
				ID:      "q1",
				Votes:   5,
				AddedBy: "ana",
				Track: models.Track{
					ID:         "t1",
					Name:       "Song One",
					Artists:    []models.Artist{{Name: "Artist One"}, {Name: "Guest"}},
					DurationMS: 180000,
					Album:      models.Album{Name: "Album One"},
				},
			},
			{
				ID:    "q2",
				Votes: 1,
				Track: models.Track{ID: "t2", Name: "Song, Two", Artists: []models.Artist{{Name: "Artist Two"}}, DurationMS: 241000},
			},
		},
		Members:    models.Members{{ID: "u1", Name: "ana"}, {ID: "u2", Name: "ben"}},
		ExportedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "Position,ID,Title,Artist,Album,Duration,Votes,Added By,URI") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,q1,Song One,"Artist One, Guest",Album One,180000,5,ana,spotify:track:t1`) {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, `"Song, Two"`) {
			t.Errorf("CSV should quote titles containing commas, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport(), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Friday Night",
			"![Cover](cover.jpg)",
			"**Code**: AB12",
			"**Visibility**: Private",
			"**Tracks**: 2 (7:01)",
			"**Members**: ana, ben",
			"**Exported**: 2025-03-01T10:00:00Z",
			"1. Artist One, Guest - Song One (Album One) [3:00] 5 votes",
			"2. Artist Two - Song, Two [4:01] 1 vote",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdownEmptyQueue", func(t *testing.T) {
		export := &models.RoomExport{Room: models.Room{Code: "ZZ99"}}
		data, err := ExportToMarkdown(export, "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "# Room ZZ99") {
			t.Errorf("expected fallback title, got:\n%s", output)
		}
		if !strings.Contains(output, "_The queue is empty._") {
			t.Errorf("expected empty queue note, got:\n%s", output)
		}
		if strings.Contains(output, "Cover") {
			t.Errorf("did not expect cover, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Room: Friday Night\nCode: AB12\nTracks: 2\n\n") {
			t.Errorf("unexpected header:\n%s", output)
		}
		if !strings.Contains(output, "1. Artist One - Song One [3:00] 5 votes") {
			t.Errorf("missing first line:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.RoomExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Room.Code != "AB12" || len(decoded.Queue) != 2 || decoded.Queue[0].Votes != 5 {
			t.Errorf("unexpected decoded export: %+v", decoded)
		}
	})

	t.Run("ExportUnknownFormat", func(t *testing.T) {
		if _, err := Export(testExport(), Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "MD", want: FormatMarkdown},
		{in: "markdown", want: FormatMarkdown},
		{in: "txt", want: FormatText},
		{in: "", want: FormatText},
		{in: " json ", want: FormatJSON},
		{in: "yaml", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Fatalf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatQueue(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if got := FormatQueue(nil); got != "Queue is empty.\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("Items", func(t *testing.T) {
		queue := models.Queue{
			{ID: "q1", Votes: 1234, Track: models.Track{Name: "Big", Artists: []models.Artist{{Name: "A"}}, DurationMS: 61000}},
			{ID: "q2", Votes: -1, Track: models.Track{Name: "Unloved"}},
		}
		got := FormatQueue(queue)
		want := "1. A - Big [1:01] 1,234 votes\n2. Unknown Artist - Unloved [0:00] -1 vote\n"
		if got != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, got)
		}
	})
}

func TestFormatRecentRooms(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		if got := FormatRecentRooms(nil, now); got != "No recent rooms.\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("RelativeTimes", func(t *testing.T) {
		named := models.NewRecentRoom(1, models.Room{ID: "r1", Code: "AB12", Name: "Friday"}, models.RoleCreated)
		named.SetLastJoinedAt(now.Add(-2 * time.Hour))
		unnamed := models.NewRecentRoom(2, models.Room{ID: "r2", Code: "CD34"}, models.RoleJoined)
		unnamed.SetLastJoinedAt(now.Add(-3 * 24 * time.Hour))

		got := FormatRecentRooms([]*models.RecentRoom{named, unnamed}, now)

		for _, want := range []string{"AB12", "Friday", "created", "2 hours ago", "CD34", "(unnamed)", "joined", "3 days ago"} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer server.Close()

		data, err := DownloadImage(context.Background(), server.Client(), server.URL)
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpegdata" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		if _, err := DownloadImage(context.Background(), server.Client(), server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("ReadFailure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}, nil)}

		if _, err := DownloadImage(context.Background(), client, "http://example.invalid/cover.jpg"); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("CSVDefaultPath", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		result, err := WriteExport(context.Background(), nil, testExport(), FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if len(result.Files) != 1 || result.Files[0] != "AB12.csv" {
			t.Fatalf("unexpected files %v", result.Files)
		}
		if result.Size == "" {
			t.Error("expected a human readable size")
		}
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "AB12.csv")), "Song One") {
			t.Error("CSV file missing content")
		}
	})

	t.Run("MarkdownWithCover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer server.Close()

		export := testExport()
		export.Queue[0].Track.Album.Images = []models.Image{{URL: server.URL + "/cover.jpg"}}
		dir := filepath.Join(t.TempDir(), "friday")

		result, err := WriteExport(context.Background(), server.Client(), export, FormatMarkdown, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.CoverImage != filepath.Join(dir, "cover.jpg") {
			t.Errorf("unexpected cover path %q", result.CoverImage)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected cover and README, got %v", result.Files)
		}
		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Cover](cover.jpg)") {
			t.Errorf("README should reference the cover:\n%s", readme)
		}
	})

	t.Run("MarkdownCoverFailureIsIgnored", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		export := testExport()
		export.Queue[0].Track.Album.Images = []models.Image{{URL: server.URL}}
		dir := filepath.Join(t.TempDir(), "out")

		result, err := WriteExport(context.Background(), server.Client(), export, FormatMarkdown, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if result.CoverImage != "" || len(result.Files) != 1 {
			t.Errorf("expected README only, got %+v", result)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "out.json")
		if _, err := WriteExport(context.Background(), nil, testExport(), FormatJSON, path); err == nil {
			t.Error("expected error writing into a missing directory")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file should not exist, stat err: %v", err)
		}
	})
}
