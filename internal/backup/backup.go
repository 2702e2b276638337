// Package backup snapshots every collection to a timestamped directory and
// keeps only the newest snapshots.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

const (
	DefaultKeep  = 30
	dirPrefix    = "backup-"
	manifestName = "manifest.json"
	// timeLayout is the UTC timestamp embedded in run directory names.
	timeLayout = "2006-01-02T15-04-05.000Z"
)

const (
	TypeManual    = "manual"
	TypeScheduled = "scheduled"
)

type Manifest struct {
	Timestamp    time.Time      `json:"timestamp"`
	Type         string         `json:"type"`
	Collections  map[string]int `json:"collections"`
	TotalRecords int            `json:"totalRecords"`
}

type repository interface {
	FindAll(ctx context.Context, c domain.Collection) ([]domain.Record, error)
}

type Service struct {
	repo   repository
	dir    string
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository, dir string, keep int, logger *slog.Logger) *Service {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Service{repo: repo, dir: dir, keep: keep, logger: logger, now: time.Now}
}

// Run takes one snapshot and then prunes old ones. It returns the new
// snapshot directory.
func (s *Service) Run(ctx context.Context, backupType string) (string, error) {
	path, err := s.Snapshot(ctx, backupType)
	if err != nil {
		return "", err
	}
	if _, err := s.Prune(); err != nil {
		return path, err
	}
	return path, nil
}

// Snapshot writes each collection to <dir>/backup-<timestamp>/<name>.json
// followed by the manifest. A failure part way leaves the directory as is.
func (s *Service) Snapshot(ctx context.Context, backupType string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	ts := s.now().UTC()
	path, err := s.createRunDir(ts)
	if err != nil {
		return "", err
	}
	s.logger.Info("backup started", "path", path, "type", backupType)

	manifest := Manifest{
		Timestamp:   ts,
		Type:        backupType,
		Collections: make(map[string]int, len(domain.Collections)),
	}

	for _, c := range domain.Collections {
		records, err := s.repo.FindAll(ctx, c)
		if err != nil {
			return path, fmt.Errorf("failed to read %s: %w", c, err)
		}
		if records == nil {
			records = []domain.Record{}
		}
		if err := writeJSON(filepath.Join(path, string(c)+".json"), records); err != nil {
			return path, fmt.Errorf("failed to write %s: %w", c, err)
		}
		manifest.Collections[string(c)] = len(records)
		manifest.TotalRecords += len(records)
		s.logger.Debug("collection backed up", "collection", c, "records", len(records))
	}

	if err := writeJSON(filepath.Join(path, manifestName), manifest); err != nil {
		return path, fmt.Errorf("failed to write manifest: %w", err)
	}

	s.logger.Info("backup completed", "path", path, "records", manifest.TotalRecords)
	return path, nil
}

// Prune deletes all but the newest keep backup directories and returns the
// removed paths. Incomplete directories count like complete ones.
func (s *Service) Prune() ([]string, error) {
	dirs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(dirs) <= s.keep {
		return nil, nil
	}

	stale := dirs[:len(dirs)-s.keep]
	removed := make([]string, 0, len(stale))
	for _, name := range stale {
		path := filepath.Join(s.dir, name)
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup %s: %w", name, err)
		}
		s.logger.Info("old backup removed", "path", path)
		removed = append(removed, path)
	}
	return removed, nil
}

// List returns backup directory names, oldest first. Entries whose name
// does not carry a backup timestamp are ignored.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	type runDir struct {
		name string
		ts   time.Time
		seq  int
	}
	var runs []runDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts, seq, ok := parseRunDir(e.Name())
		if !ok {
			continue
		}
		runs = append(runs, runDir{name: e.Name(), ts: ts, seq: seq})
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].ts.Equal(runs[j].ts) {
			return runs[i].ts.Before(runs[j].ts)
		}
		return runs[i].seq < runs[j].seq
	})

	dirs := make([]string, len(runs))
	for i, r := range runs {
		dirs[i] = r.name
	}
	return dirs, nil
}

// parseRunDir splits a name created by createRunDir into its timestamp and
// collision sequence (0 when there is no -N suffix).
func parseRunDir(name string) (time.Time, int, bool) {
	rest, ok := strings.CutPrefix(name, dirPrefix)
	if !ok || len(rest) < len(timeLayout) {
		return time.Time{}, 0, false
	}
	ts, err := time.Parse(timeLayout, rest[:len(timeLayout)])
	if err != nil {
		return time.Time{}, 0, false
	}

	suffix := rest[len(timeLayout):]
	if suffix == "" {
		return ts, 0, true
	}
	digits, ok := strings.CutPrefix(suffix, "-")
	if !ok {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	return ts, seq, true
}

// Schedule runs a backup immediately and then every interval until ctx is
// done. Failed runs are logged and do not stop the schedule.
func (s *Service) Schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx, TypeScheduled); err != nil {
			s.logger.Error("scheduled backup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// createRunDir makes the directory for a run at ts. Runs sharing a
// timestamp get a -N suffix above any existing one, so a new run always
// sorts after older runs even once some of them have been pruned.
func (s *Service) createRunDir(ts time.Time) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read backup directory: %w", err)
	}
	seq := -1
	for _, e := range entries {
		if other, n, ok := parseRunDir(e.Name()); ok && other.Equal(ts.Truncate(time.Millisecond)) && n > seq {
			seq = n
		}
	}

	base := filepath.Join(s.dir, dirPrefix+ts.Format(timeLayout))
	for tries := 0; ; tries++ {
		seq++
		path := base
		if seq > 0 {
			path = fmt.Sprintf("%s-%d", base, seq)
		}
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) || tries >= 100 {
			return "", fmt.Errorf("failed to create backup run directory: %w", err)
		}
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
