package presenter

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/lorrc/bug-burndown/internal/core/domain"
)

// DefaultAssetsHost serves echarts.min.js for the rendered page.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const chartID = "chart"

// PageTitle is used when no query was given.
const PageTitle = "Burning up"

// Page is the view model of the HTML page.
type Page struct {
	Title      string
	ErrorText  string
	Report     *domain.Report
	Links      []BugLink
	BugListURL string
	AssetsHost string
}

// Linker builds tracker URLs for bugs.
type Linker interface {
	BugURL(id int64) string
	BugListURL(ids []int64) string
}

// NewPage builds the page for a finished burndown. err, when set, replaces
// the chart with its ErrorText.
func NewPage(query string, report *domain.Report, err error, linker Linker) Page {
	page := Page{
		Title:      PageTitle,
		AssetsHost: DefaultAssetsHost,
	}
	if qs := domain.NormalizeQueryString(query); qs != "" {
		page.Title = domain.ChartTitle(qs)
	}
	if err != nil {
		page.ErrorText = ErrorText(err)
		return page
	}
	if report == nil || report.Series.Empty() {
		page.ErrorText = NoBugsText
		return page
	}

	page.Title = report.Title
	page.Report = report
	page.Links = BugLinks(report.OpenBugs, linker.BugURL)
	page.BugListURL = linker.BugListURL(LinkIDs(page.Links))
	return page
}

// NewChart draws series as a stacked area line chart.
func NewChart(title string, series domain.Series, assetsHost string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  title,
			Width:      "100%",
			Height:     "600px",
			ChartID:    chartID,
			AssetsHost: assetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Left:  "center", // nolint:misspell
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Bugs"}),
		charts.WithColorsOpts(opts.Colors{OpenColor, ClosedColor}),
		charts.WithLegendOpts(opts.Legend{
			Top:  "bottom",
			Left: "center", // nolint:misspell
		}),
	)

	line.SetXAxis(series.Dates).
		AddSeries(OpenName, lineData(series.Open),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: OpenColor})).
		AddSeries(ClosedName, lineData(series.Closed),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ClosedColor})).
		SetSeriesOptions(
			charts.WithAreaStyleOpts(opts.AreaStyle{}),
			charts.WithLineChartOpts(opts.LineChart{Stack: "bugs"}),
		)
	return line
}

func lineData(values []int) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

type pageData struct {
	Page
	ChartOptions template.JS
	ChartID      string
}

// RenderPage writes the HTML page for p to w.
func RenderPage(w io.Writer, p Page) error {
	data := pageData{Page: p, ChartID: chartID}
	if p.Report != nil && p.ErrorText == "" {
		line := NewChart(p.Title, p.Report.Series, p.AssetsHost)
		line.Validate()
		options, err := json.Marshal(line.JSON())
		if err != nil {
			return fmt.Errorf("encoding chart options: %w", err)
		}
		data.ChartOptions = template.JS(options)
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"pct":   func(f float64) string { return fmt.Sprintf("%.0f%%", domain.RoundDown(f)*100) },
	"round": func(f float64) string { return fmt.Sprintf("%.2f", domain.RoundDown(f)) },
	"total": func(s domain.Stats) int { return s.CurrentOpen + s.CurrentClosed },
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1em 2em; }
#{{.ChartID}} { width: 100%; height: 600px; font-size: 2em; }
.stats { color: #555; }
.open-bugzilla { display: block; margin-top: 1em; font-weight: bold; }
</style>
</head>
<body>
<div id="{{.ChartID}}">{{.ErrorText}}</div>
{{- with .Report}}
<div class="stats">
<p>Progress: {{.Stats.CurrentClosed}} of {{total .Stats}} bugs closed ({{pct .Stats.Progress}})</p>
<p>Velocity: {{.Stats.BugsClosed}} closed and {{.Stats.BugsOpened}} opened in {{.Stats.PeriodDays}} days ({{round .Stats.ClosedPerDay}} closed per day)</p>
{{- range .Stats.Forecasts}}
<p>{{.Label}}: {{if .Unbounded}}never{{else}}{{.DaysToZero}} days, {{.Date}}{{if .Version}} (version {{.Version}}){{end}}{{end}}</p>
{{- end}}
</div>
{{- end}}
<div id="bugs">
{{- range .Links}}
<div><a href="{{.URL}}">{{.Text}}</a></div>
{{- end}}
{{- if .BugListURL}}
<a class="open-bugzilla" href="{{.BugListURL}}">Open bug list in Bugzilla</a>
{{- end}}
</div>
{{- if .ChartOptions}}
<script src="{{.AssetsHost}}echarts.min.js"></script>
<script>
(function () {
  var chart = echarts.init(document.getElementById({{.ChartID}}));
  chart.setOption({{.ChartOptions}});
  window.addEventListener("resize", function () { chart.resize(); });
})();
</script>
{{- end}}
</body>
</html>
`
