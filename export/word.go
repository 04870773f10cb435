package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qreport/checkup"

	docx "github.com/fumiama/go-docx"
)

// Status colors used in the Word report (hex, no leading #).
const (
	wordColorOK      = "2E7D32"
	wordColorNOK     = "C00000"
	wordColorNA      = "7F7F7F"
	wordColorPending = "B8860B"
)

// runWord renders the .docx report.
func (m *Manager) runWord(dir string, data *reportData) (string, error) {
	doc := renderWord(data)

	path := filepath.Join(dir, "report.docx")
	f, err := os.Create(path)
	if err != nil {
		return "", stepErr(StepWrite, err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return "", stepErr(StepWrite, err)
	}
	if err := f.Close(); err != nil {
		return "", stepErr(StepWrite, err)
	}
	if err := validateFile(path); err != nil {
		return "", err
	}
	return path, nil
}

func renderWord(data *reportData) *docx.Docx {
	cu := data.CheckUp
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph()
	title.AddText("Check-Up Report").Size("40").Bold()
	title.Justification("center")

	sub := doc.AddParagraph()
	sub.AddText(fmt.Sprintf("%s / %s / %s", cu.Client, cu.FacilityName, cu.IslandName)).Size("24")
	sub.Justification("center")
	doc.AddParagraph()

	wordHeading(doc, "Visit")
	wordField(doc, "Island", cu.IslandName)
	wordField(doc, "Serial number", cu.SerialNumber)
	wordField(doc, "Facility", cu.FacilityName)
	wordField(doc, "Client", cu.Client)
	wordField(doc, "Technician", cu.Technician)
	wordField(doc, "Scheduled", formatTimePtr(cu.ScheduledFor))
	wordField(doc, "Started", formatTimePtr(cu.StartedAt))
	wordField(doc, "Completed", formatTimePtr(cu.CompletedAt))
	doc.AddParagraph()

	wordHeading(doc, "Result")
	s := data.Stats
	wordField(doc, "Items checked", fmt.Sprintf("%d of %d (%.0f%%)", s.Done, s.Total, s.Progress))
	wordField(doc, "OK", fmt.Sprintf("%d", s.OK))
	wordField(doc, "Not OK", fmt.Sprintf("%d", s.NOK))
	wordField(doc, "Not applicable", fmt.Sprintf("%d", s.NA))
	if s.Pending > 0 {
		wordField(doc, "Still pending", fmt.Sprintf("%d", s.Pending))
	}
	doc.AddParagraph()

	for _, mod := range data.Modules {
		wordHeading(doc, mod.Name)
		for _, it := range mod.Items {
			p := doc.AddParagraph()
			p.AddText(fmt.Sprintf("[%s] ", statusLabel(it.Status))).Bold().Color(wordStatusColor(it.Status))
			p.AddText(it.Title)
			if it.Comment != "" {
				c := doc.AddParagraph()
				c.AddText("    " + it.Comment).Italic().Size("20")
			}
		}
		doc.AddParagraph()
	}

	if len(data.Parts) > 0 {
		wordHeading(doc, "Spare parts needed")
		for _, part := range data.Parts {
			p := doc.AddParagraph()
			line := fmt.Sprintf("%d x %s", part.Quantity, part.Name)
			if part.PartNumber != "" {
				line += fmt.Sprintf(" (PN %s)", part.PartNumber)
			}
			p.AddText(line)
			if part.Urgent {
				p.AddText("  URGENT").Bold().Color(wordColorNOK)
			}
			if part.Note != "" {
				n := doc.AddParagraph()
				n.AddText("    " + part.Note).Italic().Size("20")
			}
		}
		doc.AddParagraph()
	}

	if cu.Summary != "" {
		wordHeading(doc, "Summary")
		doc.AddParagraph().AddText(cu.Summary)
		doc.AddParagraph()
	}

	footer := doc.AddParagraph()
	footer.AddText(fmt.Sprintf("Generated by QReport on %s", time.Now().Format("2006-01-02 15:04"))).Size("16").Color(wordColorNA)

	return doc
}

func wordHeading(doc *docx.Docx, text string) {
	p := doc.AddParagraph()
	p.AddText(text).Size("28").Bold()
}

func wordField(doc *docx.Docx, label, value string) {
	p := doc.AddParagraph()
	p.AddText(label + ": ").Bold()
	p.AddText(value)
}

func wordStatusColor(status string) string {
	switch status {
	case checkup.ItemOK:
		return wordColorOK
	case checkup.ItemNOK:
		return wordColorNOK
	case checkup.ItemNA:
		return wordColorNA
	default:
		return wordColorPending
	}
}
