package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

var textReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"status": statusLabel,
	"when":   formatTimePtr,
	"rule":   func(s string) string { return strings.Repeat("-", len(s)) },
	"now":    func() string { return time.Now().Format("2006-01-02 15:04") },
}).Parse(`==============================================================
 CHECK-UP REPORT
 {{.CheckUp.Client}} / {{.CheckUp.FacilityName}} / {{.CheckUp.IslandName}}
==============================================================

Island:         {{.CheckUp.IslandName}}
Serial number:  {{.CheckUp.SerialNumber}}
Facility:       {{.CheckUp.FacilityName}}
Client:         {{.CheckUp.Client}}
Technician:     {{.CheckUp.Technician}}
Scheduled:      {{when .CheckUp.ScheduledFor}}
Started:        {{when .CheckUp.StartedAt}}
Completed:      {{when .CheckUp.CompletedAt}}

Result: {{.Stats.Done}} of {{.Stats.Total}} items checked ({{printf "%.0f" .Stats.Progress}}%)
        OK: {{.Stats.OK}}  NOK: {{.Stats.NOK}}  N/A: {{.Stats.NA}}  Pending: {{.Stats.Pending}}
{{range .Modules}}
{{.Name}}
{{rule .Name}}
{{- range .Items}}
  [{{printf "%-7s" (status .Status)}}] {{.Title}}
{{- if .Comment}}
            {{.Comment}}
{{- end}}
{{- end}}
{{end}}
{{- if .Parts}}
Spare parts needed
------------------
{{- range .Parts}}
  {{.Quantity}} x {{.Name}}{{if .PartNumber}} (PN {{.PartNumber}}){{end}}{{if .Urgent}}  ** URGENT **{{end}}
{{- if .Note}}
      {{.Note}}
{{- end}}
{{- end}}

{{end}}
{{- if .CheckUp.Summary}}
Summary
-------
{{.CheckUp.Summary}}

{{end -}}
Generated by QReport on {{now}}
`))

// runText renders the plain-text report.
func (m *Manager) runText(dir string, data *reportData) (string, error) {
	var buf bytes.Buffer
	if err := textReport.Execute(&buf, data); err != nil {
		return "", stepErr(StepRender, err)
	}
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", stepErr(StepWrite, err)
	}
	if err := validateFile(path); err != nil {
		return "", err
	}
	return path, nil
}
