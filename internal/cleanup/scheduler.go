package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scheduler removes request workspaces that outlived their request,
// such as those left behind by a crash mid-pipeline. Live requests remove
// their own workspace, so anything old under the temp root is abandoned.
type Scheduler struct {
	tempRoot        string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempRoot string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		tempRoot:        tempRoot,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (s *Scheduler) Start() {
	// Sweep whatever a previous process left behind
	log.Println("Running initial workspace sweep...")
	s.sweepStale()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweepStale()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the periodic sweep
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

// sweepStale removes every entry under the temp root older than maxAgeHours.
func (s *Scheduler) sweepStale() {
	now := time.Now()
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	entries, err := os.ReadDir(s.tempRoot)
	if err != nil {
		log.Printf("Error during workspace sweep: %v", err)
		return
	}

	var removed int
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= maxAge {
			continue
		}

		path := filepath.Join(s.tempRoot, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Failed to remove stale workspace %s: %v", entry.Name(), err)
			continue
		}
		removed++
		log.Printf("Removed stale workspace: %s (age: %s)", entry.Name(), age.Round(time.Hour))
	}

	if removed > 0 {
		log.Printf("Workspace sweep complete: %d removed", removed)
	}
}

// EnsureTempDirExists creates the temp root if it doesn't exist
func EnsureTempDirExists(tempRoot string) error {
	if err := os.MkdirAll(tempRoot, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempRoot)
	return nil
}
