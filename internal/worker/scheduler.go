package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// DefaultSnapshotSchedule runs the nightly export at 03:00
const DefaultSnapshotSchedule = "0 3 * * *"

// Snapshotter writes periodic JSON snapshots of the database to a
// directory, keeping a bounded number of older files around.
type Snapshotter struct {
	storage  storage.ExportStorage
	dir      string
	schedule string
	keep     int
	cron     *cron.Cron
}

// NewSnapshotter creates a snapshotter. An empty schedule selects the
// default nightly run; keep <= 0 disables pruning.
func NewSnapshotter(store storage.ExportStorage, dir, schedule string, keep int) *Snapshotter {
	if schedule == "" {
		schedule = DefaultSnapshotSchedule
	}
	return &Snapshotter{
		storage:  store,
		dir:      dir,
		schedule: schedule,
		keep:     keep,
		cron:     cron.New(),
	}
}

// Start registers the cron entry and begins running
func (s *Snapshotter) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(); err != nil {
			log.Error("Scheduled snapshot failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Info("Snapshot scheduler started", "schedule", s.schedule, "dir", s.dir)
	return nil
}

// Stop stops the scheduler and waits for a running snapshot to finish
func (s *Snapshotter) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Snapshot scheduler stopped")
}

// RunOnce writes a single snapshot and prunes old ones
func (s *Snapshotter) RunOnce() error {
	name := fmt.Sprintf("snapshot-%s.json", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(s.dir, name)

	if err := s.storage.ExportToFile(path); err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}

	log.Info("Snapshot written", "path", path)
	return s.prune()
}

// prune removes the oldest snapshots beyond the keep limit
func (s *Snapshotter) prune() error {
	if s.keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var snapshots []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "snapshot-") && strings.HasSuffix(e.Name(), ".json") {
			snapshots = append(snapshots, e.Name())
		}
	}
	if len(snapshots) <= s.keep {
		return nil
	}

	// Timestamped names sort chronologically
	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			log.Warn("Failed to prune snapshot", "name", name, "error", err)
			continue
		}
		log.Debug("Pruned snapshot", "name", name)
	}
	return nil
}
