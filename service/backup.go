// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/danielhkuo/clubcard/db"
	"github.com/danielhkuo/clubcard/models"
)

const (
	backupPrefix = "clubcard-"
	backupSuffix = ".json.gz"
)

type BackupService struct {
	db    *sql.DB
	audit *AuditService
	dir   string
}

type backupFile struct {
	ID        string                      `json:"id"`
	CreatedAt time.Time                   `json:"createdAt"`
	Tables    map[string][]map[string]any `json:"tables"`
}

// Create dumps every table into a gzip compressed JSON file in the backup directory.
func (s *BackupService) Create(ctx context.Context) (models.Backup, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.Backup{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Dump every table from one snapshot
	dump := backupFile{
		ID:        uuid.NewString(),
		CreatedAt: now(),
		Tables:    make(map[string][]map[string]any, len(db.Tables)),
	}
	counts, err := s.snapshot(ctx, dump.Tables)
	if err != nil {
		return models.Backup{}, err
	}

	// Write the file
	name := backupPrefix + dump.ID + backupSuffix
	path := filepath.Join(s.dir, name)
	size, err := writeBackup(s.dir, name, dump)
	if err != nil {
		return models.Backup{}, err
	}

	if err := s.audit.record(ctx, s.db, "create", "backup", 0, name); err != nil {
		return models.Backup{}, err
	}

	slog.Info("backup written", "file", path, "size_bytes", size)
	return models.Backup{
		ID:        dump.ID,
		File:      name,
		SizeBytes: size,
		Tables:    counts,
		CreatedAt: dump.CreatedAt,
	}, nil
}

// List returns the backups found in the backup directory, newest first.
func (s *BackupService) List(ctx context.Context) ([]models.Backup, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []models.Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []models.Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat backup: %w", err)
		}
		backups = append(backups, models.Backup{
			ID:        strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix),
			File:      name,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC().Truncate(time.Second),
		})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].CreatedAt.After(backups[j].CreatedAt) })
	return backups, nil
}

// snapshot reads all tables inside a single read-only transaction so the
// dump is consistent across tables.
func (s *BackupService) snapshot(ctx context.Context, tables map[string][]map[string]any) (map[string]int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin backup transaction: %w", err)
	}
	defer tx.Rollback()

	counts := make(map[string]int64, len(db.Tables))
	for _, table := range db.Tables {
		rows, err := dumpTable(ctx, tx, table)
		if err != nil {
			return nil, err
		}
		tables[table] = rows
		counts[table] = int64(len(rows))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to finish backup transaction: %w", err)
	}
	return counts, nil
}

func dumpTable(ctx context.Context, q querier, table string) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("failed to dump %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// writeBackup writes to a temporary file and renames it into place, so a
// failed write never leaves a partial backup for List to find.
func writeBackup(dir, name string, dump backupFile) (size int64, err error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(dump); err != nil {
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to flush backup: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close backup file: %w", err)
	}
	if err := os.Rename(f.Name(), filepath.Join(dir, name)); err != nil {
		return 0, fmt.Errorf("failed to finalize backup: %w", err)
	}
	return info.Size(), nil
}
