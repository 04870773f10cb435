package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"qreport/store"
)

type itemRef struct {
	module string
	title  string
}

// runPhotos copies the attached photos into a per-item folder tree and
// writes an index.txt manifest. Photos without an item land in general/.
func (m *Manager) runPhotos(dir string, data *reportData) (string, error) {
	photoRoot := filepath.Join(dir, "photos")
	if err := os.MkdirAll(photoRoot, 0755); err != nil {
		return "", stepErr(StepWrite, err)
	}

	items := make(map[int64]itemRef)
	for _, mod := range data.Modules {
		for _, it := range mod.Items {
			items[it.ID] = itemRef{module: mod.Name, title: it.Title}
		}
	}

	var index bytes.Buffer
	fmt.Fprintf(&index, "Photo index - %s / %s / %s\n", data.CheckUp.Client, data.CheckUp.FacilityName, data.CheckUp.IslandName)
	fmt.Fprintf(&index, "%d photo(s)\n\n", len(data.Photos))

	seq := make(map[string]int)
	for _, p := range data.Photos {
		sub := "general"
		label := "general"
		if p.CheckItemID != nil {
			if ref, ok := items[*p.CheckItemID]; ok {
				sub = filepath.Join(slugify(ref.module), slugify(ref.title))
				label = ref.module + " / " + ref.title
			}
		}
		destDir := filepath.Join(photoRoot, sub)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return "", stepErr(StepWrite, err)
		}
		seq[sub]++
		name := fmt.Sprintf("%02d_%s", seq[sub], photoBaseName(p))
		if err := copyFile(filepath.Join(m.photoDir, p.Filename), filepath.Join(destDir, name)); err != nil {
			m.log.Warnf("export: photo %s unreadable, skipped: %v", p.Filename, err)
			continue
		}
		fmt.Fprintf(&index, "%s\n", filepath.ToSlash(filepath.Join("photos", sub, name)))
		fmt.Fprintf(&index, "    item:    %s\n", label)
		if p.Caption != "" {
			fmt.Fprintf(&index, "    caption: %s\n", p.Caption)
		}
		fmt.Fprintf(&index, "    taken:   %s\n\n", p.CreatedAt.Format("2006-01-02 15:04"))
	}

	indexPath := filepath.Join(photoRoot, "index.txt")
	if err := os.WriteFile(indexPath, index.Bytes(), 0644); err != nil {
		return "", stepErr(StepWrite, err)
	}
	if err := validateFile(indexPath); err != nil {
		return "", err
	}
	return photoRoot, nil
}

func photoBaseName(p *store.Photo) string {
	name := p.OriginalName
	if name == "" {
		name = p.Filename
	}
	return filepath.Base(name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
