package export

import (
	"fmt"
	"strings"
	"time"

	"qreport/checkup"
	"qreport/store"
)

// reportData is everything a renderer needs for one check-up.
type reportData struct {
	CheckUp *store.CheckUp
	Items   []*store.CheckItem
	Parts   []*store.SparePart
	Photos  []*store.Photo
	Stats   checkup.Stats
	Modules []moduleGroup
}

// moduleGroup is the items of one machine module, in checklist order.
type moduleGroup struct {
	Name  string
	Items []*store.CheckItem
}

// collect loads the full report dataset from the store.
func (m *Manager) collect(cu *store.CheckUp) (*reportData, error) {
	items, err := m.db.ListCheckItems(cu.ID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	parts, err := m.db.ListSpareParts(cu.ID)
	if err != nil {
		return nil, fmt.Errorf("list spare parts: %w", err)
	}
	photos, err := m.db.ListPhotos(cu.ID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	data := &reportData{
		CheckUp: cu,
		Items:   items,
		Parts:   parts,
		Photos:  photos,
		Modules: groupByModule(items),
	}
	data.Stats = computeStats(items, len(parts), len(photos))
	return data, nil
}

// computeStats derives the summary block without another round of
// store queries; the item rows are already in hand.
func computeStats(items []*store.CheckItem, parts, photos int) checkup.Stats {
	s := checkup.Stats{SpareParts: parts, Photos: photos}
	for _, it := range items {
		switch it.Status {
		case checkup.ItemOK:
			s.OK++
		case checkup.ItemNOK:
			s.NOK++
		case checkup.ItemNA:
			s.NA++
		default:
			s.Pending++
		}
	}
	s.Total = len(items)
	s.Done = s.Total - s.Pending
	if s.Total > 0 {
		s.Progress = float64(s.Done) / float64(s.Total) * 100
	}
	return s
}

// groupByModule preserves the checklist order (items arrive sorted by
// module, position).
func groupByModule(items []*store.CheckItem) []moduleGroup {
	var groups []moduleGroup
	for _, it := range items {
		if len(groups) == 0 || groups[len(groups)-1].Name != it.Module {
			groups = append(groups, moduleGroup{Name: it.Module})
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, it)
	}
	return groups
}

// exportFolderName builds the per-record folder name:
// <island-slug>_<uuid8>_<timestamp>. Retries map to the same folder.
func exportFolderName(cu *store.CheckUp, record *store.ExportRecord) string {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	short := record.UUID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s", slugify(cu.IslandName), short, createdAt.Format("20060102-150405"))
}

// slugify reduces a free-text name to a safe filesystem token.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "checkup"
	}
	return out
}

// statusLabel renders an item status for the text-based reports.
func statusLabel(status string) string {
	switch status {
	case checkup.ItemOK:
		return "OK"
	case checkup.ItemNOK:
		return "NOK"
	case checkup.ItemNA:
		return "N/A"
	default:
		return "PENDING"
	}
}

// formatTimePtr renders an optional timestamp for the reports.
func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
