package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Restore unpacks a backup archive over the data directories. It must run
// before the store opens, a live process never swaps its own database.
func Restore(zipPath, dbPath, photoDir, configPath string, log *zap.SugaredLogger) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	photos := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case f.Name == entryDatabase:
			if err := extractTo(f, dbPath); err != nil {
				return fmt.Errorf("restore database: %w", err)
			}
			// Stale WAL files would shadow the restored snapshot.
			os.Remove(dbPath + "-wal")
			os.Remove(dbPath + "-shm")
			log.Infof("restored database to %s", dbPath)
		case f.Name == entryConfig:
			if err := extractTo(f, configPath); err != nil {
				return fmt.Errorf("restore config: %w", err)
			}
			log.Infof("restored config to %s", configPath)
		case strings.HasPrefix(f.Name, entryPhotos+"/"):
			rel, err := safeRel(strings.TrimPrefix(f.Name, entryPhotos+"/"))
			if err != nil {
				return err
			}
			if err := extractTo(f, filepath.Join(photoDir, rel)); err != nil {
				return fmt.Errorf("restore photo %s: %w", rel, err)
			}
			photos++
		default:
			log.Warnf("restore: skipping unknown entry %s", f.Name)
		}
	}

	log.Infof("restore complete, %d photo(s) unpacked from %s", photos, zipPath)
	return nil
}

func extractTo(f *zip.File, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func safeRel(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe path %q in archive", name)
	}
	return clean, nil
}
