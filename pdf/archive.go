package pdf

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CreateZipArchive bundles the given files into a zip at outputPath. Each
// file is stored under its base name, matching the download the user sees.
func CreateZipArchive(files []string, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := addToArchive(zw, file); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func addToArchive(zw *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", file, err)
	}
	defer src.Close()

	dst, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("archiving %s: %w", file, err)
	}
	_, err = io.Copy(dst, src)
	return err
}
