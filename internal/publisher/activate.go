package publisher

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/apperr"
	"github.com/starford/mosaic/internal/dataset"
	"github.com/starford/mosaic/internal/storage"
)

// Steps of the rename chain, as reported in PublishError.Step.
const (
	StepClearScratch   = "clear-scratch"
	StepStashBackup    = "stash-backup"
	StepBackupLive     = "backup-live"
	StepPromoteStaging = "promote-staging"
	StepRestoreLive    = "restore-live"
	StepProbe          = "probe"
)

// PublishError reports a broken rename chain. Recovered means the previous
// live dataset is in place again; otherwise no live dataset exists.
type PublishError struct {
	Step      string
	Recovered bool
	Err       error
}

func (e *PublishError) Error() string {
	if e.Recovered {
		return fmt.Sprintf("publish: %s: %v (recovered)", e.Step, e.Err)
	}
	return fmt.Sprintf("publish: %s: %v (no live dataset)", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Is matches apperr.ErrPublishFailed always and apperr.ErrPublishFatal
// when the chain could not be recovered.
func (e *PublishError) Is(target error) bool {
	if target == apperr.ErrPublishFailed {
		return true
	}
	return !e.Recovered && target == apperr.ErrPublishFatal
}

// Activator swaps a staged file into the live slot.
type Activator struct {
	fs    storage.Provider
	paths dataset.Paths
	log   *slog.Logger
}

// NewActivator creates an activator for the dataset files named by paths.
func NewActivator(fs storage.Provider, paths dataset.Paths, log *slog.Logger) *Activator {
	return &Activator{fs: fs, paths: paths, log: log}
}

// Activate runs the rename chain:
//
//	remove scratch; backup -> scratch; live -> backup; staging -> live; remove scratch
//
// A failure in the first four steps triggers recovery. A nil error means the
// staged file is live. A *PublishError with Recovered set means the previous
// live file is still (or again) live.
func (a *Activator) Activate(staging string) error {
	p := a.paths

	if err := a.removeIfExists(p.Scratch); err != nil {
		return a.recover(StepClearScratch, staging, err)
	}

	if ok, err := a.fs.Exists(p.Backup); err != nil {
		return a.recover(StepStashBackup, staging, err)
	} else if ok {
		if err := a.fs.Rename(p.Backup, p.Scratch); err != nil {
			return a.recover(StepStashBackup, staging, err)
		}
	}

	if ok, err := a.fs.Exists(p.Live); err != nil {
		return a.recover(StepBackupLive, staging, err)
	} else if ok {
		if err := a.fs.Rename(p.Live, p.Backup); err != nil {
			return a.recover(StepBackupLive, staging, err)
		}
	} else {
		a.log.Info("no live dataset yet, skipping backup", "live", p.Live)
	}

	if err := a.fs.Rename(staging, p.Live); err != nil {
		return a.recover(StepPromoteStaging, staging, err)
	}

	if err := a.removeIfExists(p.Scratch); err != nil {
		a.log.Warn("scratch cleanup failed", "file", p.Scratch, "error", err)
	}
	return nil
}

func (a *Activator) removeIfExists(name string) error {
	ok, err := a.fs.Exists(name)
	if err != nil || !ok {
		return err
	}
	return a.fs.Remove(name)
}

// recover probes the live slot after a failed step and restores the backup
// when the live file is gone.
func (a *Activator) recover(step, staging string, cause error) error {
	p := a.paths
	a.log.Error("rename chain failed", "step", step, "error", cause)

	live, err := a.fs.Exists(p.Live)
	if err != nil {
		a.restoreScratch()
		return &PublishError{Step: StepProbe, Err: errors.CombineErrors(cause, err)}
	}

	if !live {
		a.log.Info("live dataset missing, trying to restore backup", "live", p.Live)
		backup, err := a.fs.Exists(p.Backup)
		switch {
		case err != nil:
			a.restoreScratch()
			return &PublishError{Step: StepProbe, Err: errors.CombineErrors(cause, err)}
		case !backup:
			// The previous backup may still be stashed in scratch.
			a.restoreScratch()
			if ok, err := a.fs.Exists(p.Backup); err != nil || !ok {
				return &PublishError{Step: step, Err: cause}
			}
		}
		if err := a.fs.Rename(p.Backup, p.Live); err != nil {
			a.restoreScratch()
			return &PublishError{Step: StepRestoreLive, Err: errors.CombineErrors(cause, err)}
		}
		a.log.Warn("live dataset restored from backup", "live", p.Live)
	}

	a.restoreScratch()
	if ok, _ := a.fs.Exists(staging); ok {
		if err := a.fs.Remove(staging); err != nil {
			a.log.Warn("staging cleanup failed", "file", staging, "error", err)
		}
	}
	return &PublishError{Step: step, Recovered: true, Err: cause}
}

// restoreScratch moves a surviving scratch file back to the empty backup
// slot, or deletes it when the slot is taken.
func (a *Activator) restoreScratch() {
	p := a.paths
	ok, err := a.fs.Exists(p.Scratch)
	if err != nil || !ok {
		return
	}
	backup, err := a.fs.Exists(p.Backup)
	if err != nil {
		a.log.Warn("scratch restore skipped", "error", err)
		return
	}
	if !backup {
		if err := a.fs.Rename(p.Scratch, p.Backup); err != nil {
			a.log.Warn("scratch restore failed", "file", p.Scratch, "error", err)
		}
		return
	}
	if err := a.fs.Remove(p.Scratch); err != nil {
		a.log.Warn("scratch cleanup failed", "file", p.Scratch, "error", err)
	}
}
