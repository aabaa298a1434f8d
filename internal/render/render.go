// Package render turns grouped schedules into documents.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/derekprior/roundrobin/internal/schedule"
)

// DefaultDateLayout is the round date layout used when Options leaves it
// empty.
const DefaultDateLayout = "02 January 2006"

// Format names an output document type.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatHTML, FormatMarkdown, FormatText:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format: %q", name)
	}
}

// Labels are the headings printed around the fixtures.
type Labels struct {
	Circle string
	Round  string
	Date   string
	Home   string
	Away   string
	Bye    string
}

var defaultLabels = Labels{
	Circle: "Circle",
	Round:  "Round",
	Date:   "Date",
	Home:   "Home",
	Away:   "Away",
	Bye:    "Bye",
}

// Options controls document headings and date formatting. Zero values
// use the defaults.
type Options struct {
	DateLayout string
	Labels     Labels
}

func (o Options) withDefaults() Options {
	if o.DateLayout == "" {
		o.DateLayout = DefaultDateLayout
	}
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&o.Labels.Circle, defaultLabels.Circle)
	fill(&o.Labels.Round, defaultLabels.Round)
	fill(&o.Labels.Date, defaultLabels.Date)
	fill(&o.Labels.Home, defaultLabels.Home)
	fill(&o.Labels.Away, defaultLabels.Away)
	fill(&o.Labels.Bye, defaultLabels.Bye)
	return o
}

// Write renders circles in the given format.
func Write(w io.Writer, format Format, circles []schedule.CircleGroup, opts Options) error {
	switch format {
	case FormatHTML:
		return HTML(w, circles, opts)
	case FormatMarkdown:
		return Markdown(w, circles, opts)
	case FormatText:
		return Text(w, circles, opts)
	default:
		return fmt.Errorf("unknown format: %q", format)
	}
}

var htmlTemplate = template.Must(template.New("schedule").Parse(`<div class="schedule">
{{- range .Circles}}
<h2>{{$.Labels.Circle}} {{.Circle}}</h2>
{{- range .Rounds}}
<h3>{{$.Labels.Round}} {{.Number}}</h3>
<table border="1" cellpadding="5" cellspacing="0">
<thead>
<tr><th>{{$.Labels.Date}}</th><th>{{$.Labels.Home}}</th><th>{{$.Labels.Away}}</th></tr>
</thead>
<tbody>
{{- $date := .Date.Format $.DateLayout}}
{{- range .Matches}}
<tr><td>{{$date}}</td><td>{{.Home.Title}}</td><td>{{.Away.Title}}</td></tr>
{{- end}}
</tbody>
</table>
{{- if .Byes}}
<p class="bye">{{$.Labels.Bye}}: {{range $i, $t := .Byes}}{{if $i}}, {{end}}{{$t.Title}}{{end}}</p>
{{- end}}
{{- end}}
{{- end}}
</div>
`))

type htmlData struct {
	Options
	Circles []schedule.CircleGroup
}

// HTML writes an HTML fragment with one table per round. Team titles are
// escaped.
func HTML(w io.Writer, circles []schedule.CircleGroup, opts Options) error {
	opts = opts.withDefaults()
	if err := htmlTemplate.Execute(w, htmlData{Options: opts, Circles: circles}); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return nil
}

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown renders the HTML fragment and converts it to Markdown, keeping
// each round as a pipe table.
func Markdown(w io.Writer, circles []schedule.CircleGroup, opts Options) error {
	var buf bytes.Buffer
	if err := HTML(&buf, circles, opts); err != nil {
		return err
	}
	md, err := markdownConverter.ConvertString(buf.String())
	if err != nil {
		return fmt.Errorf("converting to Markdown: %w", err)
	}
	if _, err := io.WriteString(w, strings.TrimSpace(md)+"\n"); err != nil {
		return fmt.Errorf("writing Markdown: %w", err)
	}
	return nil
}

// Text writes aligned plain-text tables.
func Text(w io.Writer, circles []schedule.CircleGroup, opts Options) error {
	opts = opts.withDefaults()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for ci, c := range circles {
		if ci > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s %d\n", opts.Labels.Circle, c.Circle)
		for _, r := range c.Rounds {
			fmt.Fprintf(tw, "\n  %s %d\n", opts.Labels.Round, r.Number)
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", opts.Labels.Date, opts.Labels.Home, opts.Labels.Away)
			date := r.Date.Format(opts.DateLayout)
			for _, m := range r.Matches {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", date, m.Home.Title, m.Away.Title)
			}
			for _, b := range r.Byes {
				fmt.Fprintf(tw, "  %s\t%s: %s\t\n", date, opts.Labels.Bye, b.Title)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing text: %w", err)
	}
	return nil
}
