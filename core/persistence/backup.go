package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arth-22/nexuscortex/core/memory"
)

// Snapshot is a point-in-time dump of the episodic->semantic memory
// boundary: every entry still in the episodic tier plus everything
// already promoted to semantic, so a restart can repopulate both stores
// without waiting for re-consolidation.
type Snapshot struct {
	TakenAt  time.Time              `json:"taken_at"`
	Episodic []memory.EpisodicEntry `json:"episodic"`
	Semantic []memory.SemanticEntry `json:"semantic"`
}

// BackupManager periodically snapshots the episodic/semantic boundary to
// disk, grounded on the teacher's StateManager (atomic write-to-temp-then-
// rename, optional autosave ticker) but narrowed from a whole-identity
// state blob to just the two memory tiers this kernel persists.
type BackupManager struct {
	mu           sync.Mutex
	path         string
	autoSave     bool
	saveInterval time.Duration
	stopChan     chan struct{}

	collect func() Snapshot
}

// NewBackupManager constructs a BackupManager. collect is called at each
// autosave tick (and on demand via Save) to gather the current episodic
// and semantic entries from the driver's store handles — BackupManager
// itself holds no store reference, so it never risks importing
// core/memory/semantic and cycling back into this package.
func NewBackupManager(path string, autoSave bool, saveInterval time.Duration, collect func() Snapshot) *BackupManager {
	return &BackupManager{
		path:         path,
		autoSave:     autoSave,
		saveInterval: saveInterval,
		stopChan:     make(chan struct{}),
		collect:      collect,
	}
}

// Start begins the autosave loop if enabled. It is a no-op otherwise.
func (b *BackupManager) Start() {
	if b.autoSave {
		go b.autoSaveLoop()
	}
}

// Stop halts the autosave loop.
func (b *BackupManager) Stop() {
	close(b.stopChan)
}

// Save writes the current snapshot to disk atomically.
func (b *BackupManager) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := b.collect()
	snap.TakenAt = time.Now()

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tempPath := b.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tempPath, b.path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// Restore reads the last snapshot written to disk.
func (b *BackupManager) Restore() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return snap, nil
}

func (b *BackupManager) autoSaveLoop() {
	ticker := time.NewTicker(b.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "backup: autosave failed: %v\n", err)
			}
		case <-b.stopChan:
			return
		}
	}
}
