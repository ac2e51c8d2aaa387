package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/airwater-cli/internal/anomaly"
	"github.com/KaramelBytes/airwater-cli/internal/dataset"
)

const dateLayout = "2006-01-02"

// DefaultPreviewRows bounds the row tables of the Markdown rendering.
const DefaultPreviewRows = 20

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range rows {
		b.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
}

func num(v float64) string { return fmt.Sprintf("%.4g", v) }

func day(t time.Time) string { return t.Format(dateLayout) }

func previewNote(b *strings.Builder, shown, total int) {
	if shown < total {
		fmt.Fprintf(b, "(showing %d of %d rows)\n", shown, total)
	}
}

// Markdown renders the air-quality result. maxRows bounds the filtered-row
// preview; zero selects DefaultPreviewRows.
func (r *AirResult) Markdown(maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	var b strings.Builder
	b.WriteString("[AIR QUALITY]\n")
	fmt.Fprintf(&b, "Dataset: %s\n", r.Dataset)
	fmt.Fprintf(&b, "Country: %s\n", r.Selection.Country)
	fmt.Fprintf(&b, "City: %s\n", orAll(r.Selection.City))
	if r.Selection.Year != 0 {
		fmt.Fprintf(&b, "Year: %d\n", r.Selection.Year)
	} else {
		b.WriteString("Year: all\n")
	}
	fmt.Fprintf(&b, "Pollutant: %s\n", r.Selection.Pollutant)
	fmt.Fprintf(&b, "Rows: %d\n", len(r.Rows))
	if r.Dropped > 0 {
		fmt.Fprintf(&b, "Dropped while loading: %d\n", r.Dropped)
	}

	b.WriteString("\n[FILTERED ROWS]\n")
	if len(r.Rows) == 0 {
		b.WriteString("No rows match the selection.\n")
	} else {
		header := append([]string{"Date", "City"}, dataset.Pollutants...)
		var rows [][]string
		for _, rec := range r.Rows[:min(maxRows, len(r.Rows))] {
			row := []string{day(rec.Date), rec.City}
			for _, p := range dataset.Pollutants {
				if v, ok := rec.Value(p); ok {
					row = append(row, num(v))
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
		table(&b, header, rows)
		previewNote(&b, len(rows), len(r.Rows))
	}
	r.Analysis.markdown(&b, maxRows)
	return b.String()
}

// Markdown renders the water-quality result. maxRows bounds the row previews;
// zero selects DefaultPreviewRows.
func (r *WaterResult) Markdown(maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	var b strings.Builder
	b.WriteString("[WATER QUALITY]\n")
	fmt.Fprintf(&b, "Dataset: %s\n", r.Dataset)
	fmt.Fprintf(&b, "Country: %s\n", r.Selection.Country)
	fmt.Fprintf(&b, "Regions: %s\n", strings.Join(r.Selection.Regions, ", "))
	fmt.Fprintf(&b, "Rows: %d\n", len(r.Rows))
	if r.Dropped > 0 {
		fmt.Fprintf(&b, "Dropped while loading: %d\n", r.Dropped)
	}

	b.WriteString("\n[TOP REGIONS]\n")
	var rows [][]string
	for _, c := range r.TopRegions {
		rows = append(rows, []string{c.Value, fmt.Sprint(c.Count)})
	}
	table(&b, []string{"Region", "Rows"}, rows)

	b.WriteString("\n[FILTERED ROWS]\n")
	if len(r.Rows) == 0 {
		b.WriteString("No rows match the selection.\n")
	} else {
		rows = rows[:0]
		for _, rec := range r.Rows[:min(maxRows, len(r.Rows))] {
			rows = append(rows, []string{rec.Region, rec.City, num(rec.WaterPollution)})
		}
		table(&b, []string{"Region", "City", "WaterPollution"}, rows)
		previewNote(&b, len(rows), len(r.Rows))
	}

	b.WriteString("\n[REGION MEANS]\n")
	rows = rows[:0]
	for _, m := range r.RegionMeans {
		rows = append(rows, []string{m.Region, num(m.Mean), fmt.Sprint(m.Count)})
	}
	table(&b, []string{"Region", "Mean WaterPollution", "Rows"}, rows)

	b.WriteString("\n[TOP CITIES]\n")
	rows = rows[:0]
	for _, c := range r.TopCities {
		rows = append(rows, []string{c.Value, fmt.Sprint(c.Count)})
	}
	table(&b, []string{"City", "Rows"}, rows)

	if r.Analysis != nil {
		r.Analysis.markdown(&b, maxRows)
	}
	return b.String()
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func (a *SeriesAnalysis) markdown(b *strings.Builder, maxRows int) {
	b.WriteString("\n[DAILY SERIES]\n")
	if !a.Resample.Available {
		fmt.Fprintf(b, "Unavailable: %s\n", a.Resample.Reason)
	} else {
		s := a.Series
		fmt.Fprintf(b, "%s: %d days from %s to %s (%d observations, %d days interpolated)\n",
			a.Name, s.Len(), day(s.Timestamps[0]), day(s.Last()), a.Observations, s.ImputedCount())
	}

	if len(a.Monthly) > 0 {
		b.WriteString("\n[MONTHLY TREND]\n")
		var rows [][]string
		for _, m := range a.Monthly {
			rows = append(rows, []string{m.Month, num(m.Mean), fmt.Sprint(m.Days)})
		}
		table(b, []string{"Month", "Mean", "Observations"}, rows)
	}

	b.WriteString("\n[FORECAST]\n")
	if !a.ForecastStatus.Available {
		fmt.Fprintf(b, "Forecast unavailable: %s\n", a.ForecastStatus.Reason)
	} else {
		f := a.Forecast
		fmt.Fprintf(b, "%s, %d days\n", f.Model, f.Horizon)
		var rows [][]string
		for _, p := range f.Points {
			rows = append(rows, []string{day(p.Time), num(p.Value), num(p.Lower), num(p.Upper)})
		}
		table(b, []string{"Date", "Forecast", "Lower 95%", "Upper 95%"}, rows)
	}

	b.WriteString("\n[ANOMALIES]\n")
	if !a.AnomalyStatus.Available {
		fmt.Fprintf(b, "Anomaly detection unavailable: %s\n", a.AnomalyStatus.Reason)
		return
	}
	fmt.Fprintf(b, "%d of %d days flagged\n", a.AnomalyCount, len(a.Anomalies))
	var rows [][]string
	for _, p := range a.Anomalies {
		if p.Label != anomaly.Anomalous {
			continue
		}
		rows = append(rows, []string{day(p.Time), num(p.Value), fmt.Sprintf("%.3f", p.Score), fmt.Sprint(p.Imputed)})
		if len(rows) == maxRows {
			break
		}
	}
	if len(rows) > 0 {
		table(b, []string{"Date", "Value", "Score", "Imputed"}, rows)
	}
}
