package http

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/couchcryptid/pfas-dashboard-service/internal/aggregate"
)

// Marker popups are rendered server-side so every client shows the same
// fragment. Field values pass through html/template's contextual escaping.
var popupTemplate = template.Must(template.New("popup").Parse(`<div style="width: 520px;">
  <div style="font-weight:700; font-size:14px; margin-bottom:6px;">
    {{.Location}}
  </div>

  <div style="margin-bottom:6px; font-size:13px;">
    Aantal metingen op deze locatie: <b>{{.N}}</b>
  </div>

  <div style="margin-bottom:8px; font-size:12px; color:#b45309;">
    <b>{{.BelowLOQ}}</b> van {{.N}} metingen zijn &lt;LOQ ({{.BelowLOQPct}}%).
  </div>

  <div style="max-height: 240px; overflow-y: auto; border: 1px solid #ddd; padding: 6px;">
    <table style="width:100%; border-collapse: collapse; font-size:12px;">
      <thead>
        <tr>
          <th style="text-align:left; border-bottom:1px solid #ddd;">PFAS</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Jaar</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Waarde</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Eenheid</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Bron</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Medium</th>
          <th style="text-align:left; border-bottom:1px solid #ddd;">Sampletype</th>
        </tr>
      </thead>
      <tbody>
{{- range .Rows}}
        <tr><td>{{.Substance}}</td><td>{{.Year}}</td><td>{{.Value}}</td><td>{{.Unit}}</td><td>{{.Source}}</td><td>{{.Medium}}</td><td>{{.SampleType}}</td></tr>
{{- end}}
      </tbody>
    </table>
  </div>
{{- if gt .Remainder 0}}
  <div style="margin-top:6px; font-size:12px;"><i>Toont {{.Shown}} van {{.N}} metingen. Filter verder om minder te tonen.</i></div>
{{- end}}
</div>
`))

type popupData struct {
	Location    string
	N           int
	BelowLOQ    int
	BelowLOQPct string
	Rows        []popupRow
	Shown       int
	Remainder   int
}

// popupRow holds the detail table cells, already formatted. Values stay on
// the raw scale with their own unit; missing year or value renders empty.
type popupRow struct {
	Substance  string
	Year       string
	Value      string
	Unit       string
	Source     string
	Medium     string
	SampleType string
}

func renderPopup(g aggregate.LocationGroup) (string, error) {
	data := popupData{
		Location:    g.Location,
		N:           g.N,
		BelowLOQ:    g.BelowLOQ,
		BelowLOQPct: strconv.FormatFloat(g.BelowLOQPct, 'f', 1, 64),
		Rows:        make([]popupRow, 0, len(g.Rows)),
		Shown:       len(g.Rows),
		Remainder:   g.Remainder,
	}
	for _, m := range g.Rows {
		data.Rows = append(data.Rows, popupRow{
			Substance:  m.Substance,
			Year:       formatOptionalInt(m.Year),
			Value:      formatOptionalFloat(m.Value),
			Unit:       m.Unit,
			Source:     m.Source,
			Medium:     m.Medium,
			SampleType: m.SampleType,
		})
	}

	var sb strings.Builder
	if err := popupTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("executing popup template: %w", err)
	}
	return sb.String(), nil
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
