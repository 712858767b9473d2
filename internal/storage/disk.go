package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsageBytes returns the combined size of the database file (with its WAL
// and shared-memory siblings) and every regular file under the extra paths.
// Missing paths count as zero.
func DiskUsageBytes(dbPath string, dirs ...string) (int64, error) {
	var total int64
	if dbPath != "" && dbPath != ":memory:" {
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			n, err := pathSize(p)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		n, err := pathSize(d)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func pathSize(p string) (int64, error) {
	var total int64
	err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
