package console

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/service/publish"
)

const (
	ansiGreen  = "\033[1;92m"
	ansiRed    = "\033[1;91m"
	ansiYellow = "\033[1;93m"
	ansiReset  = "\033[0m"
)

// Reporter prints run progress for an operator watching the terminal.
type Reporter struct {
	out      io.Writer
	colorize bool
}

func New(out io.Writer) *Reporter {
	return &Reporter{
		out:      out,
		colorize: shouldColorize(out),
	}
}

func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := file.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Reporter) paint(color, s string) string {
	if !r.colorize {
		return s
	}

	return color + s + ansiReset
}

func (r *Reporter) Banner() {
	fmt.Fprintln(r.out, "🎨 Sticker to Emoji Converter")
	fmt.Fprintln(r.out)
}

func (r *Reporter) PackFetched(pack *domain.Pack, limit int) {
	fmt.Fprintf(r.out, "📊 Found %d stickers in '%s' (limit %d)\n", len(pack.Assets), pack.Title, limit)
}

func (r *Reporter) ItemStarted(seq, limit int, asset domain.AssetDescriptor) {
	fmt.Fprintf(r.out, "  %d/%d: %s ", seq, limit, asset.EmojiOrDefault())
}

func (r *Reporter) ItemConverted(_ int, res domain.NormalizedResult) {
	fmt.Fprintf(r.out, "%s %s %s\n", r.paint(ansiGreen, "✓"), res.Format, humanize.Bytes(uint64(res.Size)))
}

func (r *Reporter) ItemSkipped(_ int, _ domain.AssetDescriptor, err error) {
	fmt.Fprintf(r.out, "%s (%s) %v\n", r.paint(ansiRed, "✗"), domain.FailureKind(err), err)
}

func (r *Reporter) LimitReached(limit int) {
	fmt.Fprintln(r.out, r.paint(ansiYellow, fmt.Sprintf("⚠️  Reached limit of %d emojis", limit)))
}

func (r *Reporter) UploadStarted(seq, total int, res domain.NormalizedResult) {
	fmt.Fprintf(r.out, "   Uploading %d/%d: %s ", seq, total, res.Emoji)
}

func (r *Reporter) Uploaded(int) {
	fmt.Fprintln(r.out, r.paint(ansiGreen, "✓"))
}

func (r *Reporter) UploadFailed(_ int, err error) {
	fmt.Fprintf(r.out, "%s %v\n", r.paint(ansiRed, "✗"), err)
}

// Summary prints converted and skipped counts as a table.
func (r *Reporter) Summary(batch *domain.ConversionBatch) {
	rows := [][]string{
		{"Converted", strconv.Itoa(len(batch.Results))},
		{"  animated", strconv.Itoa(batch.CountFormat(domain.FormatAnimated))},
		{"  static", strconv.Itoa(batch.CountFormat(domain.FormatStatic))},
		{"Skipped", strconv.Itoa(batch.Skipped)},
		{"Total size", humanize.Bytes(uint64(batch.TotalSize()))},
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, renderTable([]string{batch.Title, ""}, rows))
}

func (r *Reporter) Published(report *publish.Report) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "✅ Emoji pack created: %d uploaded, %d failed\n", report.Uploaded, report.Failed)
	fmt.Fprintf(r.out, "🔗 %s\n", report.URL)
}

func (r *Reporter) Saved(dir string, count int) {
	fmt.Fprintf(r.out, "💾 %d files saved to: %s\n", count, dir)
}

func (r *Reporter) DryRun() {
	fmt.Fprintln(r.out, "Dry run, nothing published.")
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	return tw.Render()
}
