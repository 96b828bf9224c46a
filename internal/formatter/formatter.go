// package formatter renders room queues and history for export and terminal output (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/dustin/go-humanize"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat maps a flag value (csv, md/markdown, txt/text, json) to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ExportToCSV converts a RoomExport to CSV with columns: Position, ID, Title, Artist, Album, Duration, Votes, Added By, URI
func ExportToCSV(export *models.RoomExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "Duration", "Votes", "Added By", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range export.Queue {
		record := []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.Track.Name,
			item.Track.ArtistNames(),
			item.Track.Album.Name,
			strconv.Itoa(item.Track.DurationMS),
			strconv.Itoa(item.Votes),
			item.AddedBy,
			item.Track.PlayableURI(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a RoomExport to Markdown with an optional cover image
func ExportToMarkdown(export *models.RoomExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", roomTitle(export.Room))
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Code**: %s\n", export.Room.Code)
	fmt.Fprintf(&buf, "**Visibility**: %s\n", visibility(export.Room.IsPrivate))
	fmt.Fprintf(&buf, "**Tracks**: %d (%s)\n", len(export.Queue), shared.FormatDuration(export.TotalDuration()))
	if len(export.Members) > 0 {
		fmt.Fprintf(&buf, "**Members**: %s\n", memberNames(export.Members))
	}
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.UTC().Format(time.RFC3339))
	}

	buf.WriteString("\n## Queue\n\n")
	if len(export.Queue) == 0 {
		buf.WriteString("_The queue is empty._\n")
	}
	for i, item := range export.Queue {
		albumPart := ""
		if item.Track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", item.Track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] %s\n",
			i+1, item.Track.ArtistNames(), item.Track.Name, albumPart,
			shared.FormatDuration(item.Track.DurationMS), votes(item.Votes))
	}
	return buf.Bytes(), nil
}

// ExportToText converts a RoomExport to plain text
func ExportToText(export *models.RoomExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Room: %s\n", roomTitle(export.Room))
	fmt.Fprintf(&buf, "Code: %s\n", export.Room.Code)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Queue))
	buf.WriteString(FormatQueue(export.Queue))
	return buf.Bytes(), nil
}

// ExportToJSON renders the whole export as indented JSON
func ExportToJSON(export *models.RoomExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders export in the given format. Markdown is rendered without a cover.
func Export(export *models.RoomExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatJSON:
		return ExportToJSON(export)
	case FormatText:
		return ExportToText(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// FormatQueue renders one numbered line per queue item.
func FormatQueue(queue models.Queue) string {
	if len(queue) == 0 {
		return "Queue is empty.\n"
	}

	var b strings.Builder
	for i, item := range queue {
		fmt.Fprintf(&b, "%d. %s - %s [%s] %s\n",
			i+1, item.Track.PrimaryArtist(), item.Track.Name,
			shared.FormatDuration(item.Track.DurationMS), votes(item.Votes))
	}
	return b.String()
}

// FormatRecentRooms renders the room history relative to now.
func FormatRecentRooms(rooms []*models.RecentRoom, now time.Time) string {
	if len(rooms) == 0 {
		return "No recent rooms.\n"
	}

	var b strings.Builder
	for _, r := range rooms {
		name := r.Name()
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&b, "%-8s %-24s %-7s %s\n",
			r.Code(), name, r.Role(), humanize.RelTime(r.LastJoinedAt(), now, "ago", "from now"))
	}
	return b.String()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// ExportResult lists the files written by [WriteExport].
type ExportResult struct {
	Format     Format
	Files      []string
	CoverImage string
	Size       string
}

// WriteExport writes export to path in format.
//
// path defaults to the room code plus the format extension. Markdown exports
// get their own directory holding README.md and, when the first queued track
// has artwork and client is non-nil, cover.jpg.
func WriteExport(ctx context.Context, client *http.Client, export *models.RoomExport, format Format, path string) (*ExportResult, error) {
	base := export.Room.Code
	if base == "" {
		base = export.Room.ID
	}
	result := &ExportResult{Format: format}

	if format == FormatMarkdown {
		dir := path
		if dir == "" {
			dir = base
		}
		if err := writeMarkdownExport(ctx, client, export, dir, result); err != nil {
			return nil, err
		}
		return result.sized(), nil
	}

	if path == "" {
		path = base + format.Extension()
	}
	data, err := Export(export, format)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	result.Files = append(result.Files, path)
	return result.sized(), nil
}

func writeMarkdownExport(ctx context.Context, client *http.Client, export *models.RoomExport, dir string, result *ExportResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var cover string
	if client != nil && len(export.Queue) > 0 {
		if url := export.Queue[0].Track.ArtworkURL(); url != "" {
			if data, err := DownloadImage(ctx, client, url); err == nil {
				path := filepath.Join(dir, "cover.jpg")
				if err := os.WriteFile(path, data, 0o644); err == nil {
					cover = "cover.jpg"
					result.CoverImage = path
					result.Files = append(result.Files, path)
				}
			}
		}
	}

	data, err := ExportToMarkdown(export, cover)
	if err != nil {
		return fmt.Errorf("failed to generate Markdown: %w", err)
	}
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, path)
	return nil
}

func (r *ExportResult) sized() *ExportResult {
	var total uint64
	for _, f := range r.Files {
		if info, err := os.Stat(f); err == nil {
			total += uint64(info.Size())
		}
	}
	r.Size = humanize.Bytes(total)
	return r
}

func roomTitle(r models.Room) string {
	if r.Name != "" {
		return r.Name
	}
	return "Room " + r.Code
}

func visibility(private bool) string {
	if private {
		return "Private"
	}
	return "Public"
}

func votes(n int) string {
	if n == 1 || n == -1 {
		return humanize.Comma(int64(n)) + " vote"
	}
	return humanize.Comma(int64(n)) + " votes"
}

func memberNames(m models.Members) string {
	names := make([]string, 0, len(m))
	for _, member := range m {
		names = append(names, member.Name)
	}
	return strings.Join(names, ", ")
}
