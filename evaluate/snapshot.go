package evaluate

import (
	"log"
	"os"
	"time"

	"github.com/feateval/feateval/errors"
	"github.com/feateval/feateval/serialization"
)

// snapshotState is the persisted form of an interrupted evaluation: the
// summary so far, the in-flight unit's progress tuple, and the options the
// run was started with.
type snapshotState struct {
	Summary  *Summary
	Progress progress
	Options  evalOptions
}

// checkpoints owns the resumable-execution bookkeeping of a run: the progress
// of the unit being trained, the heartbeat, and periodic snapshot saves. It
// is the serialization adapter around the pure resumeState.
type checkpoints struct {
	opts    *Options
	summary *Summary
	resume  resumeState

	current      progress
	haveCurrent  bool
	iterationIdx int

	lastBeat time.Time
	lastSave time.Time
}

func newCheckpoints(opts *Options, summary *Summary) *checkpoints {
	return &checkpoints{opts: opts, summary: summary}
}

// loadSnapshot restores (Summary, progress, options) from the snapshot file.
// Options drift across restarts is a hard error: the snapshot is only valid
// for the exact evaluation it was taken from.
func (c *checkpoints) loadSnapshot() error {
	var state snapshotState
	if err := serialization.Decode(c.opts.SnapshotPath, &state); err != nil {
		return errors.Wrapf(err, "loading snapshot %s", c.opts.SnapshotPath)
	}
	if !state.Options.equal(c.opts.evalOptions()) {
		return errors.Errorf("current feature evaluation options differ from options in snapshot %s", c.opts.SnapshotPath)
	}
	*c.summary = *state.Summary
	c.resume.restore(state.Progress)
	log.Printf("resuming evaluation from snapshot %s", c.opts.SnapshotPath)
	return nil
}

// saveSnapshot serializes (Summary, progress, options) so an interrupted run
// loses at most the in-flight unit.
func (c *checkpoints) saveSnapshot() error {
	if !c.haveCurrent {
		return errors.New("no progress marker to snapshot")
	}
	state := snapshotState{
		Summary:  c.summary,
		Progress: c.current,
		Options:  c.opts.evalOptions(),
	}
	if err := serialization.Encode(c.opts.SnapshotPath, &state); err != nil {
		return errors.Wrapf(err, "saving snapshot %s", c.opts.SnapshotPath)
	}
	c.lastSave = time.Now()
	return nil
}

// shouldSkip reports whether the unit was already completed by a previous,
// snapshotted run.
func (c *checkpoints) shouldSkip(p progress) bool {
	return c.resume.shouldSkip(p)
}

// beginUnit marks the unit about to train. The first unit that actually
// executes disarms the resume state: from here on the run is ahead of the
// snapshot.
func (c *checkpoints) beginUnit(p progress) {
	c.current = p
	c.haveCurrent = true
	c.iterationIdx = 0
	c.lastBeat = time.Now()
	c.resume.invalidate()
}

// onIteration is the training callback: a rate-limited heartbeat for operator
// visibility plus periodic snapshot saves. It always continues training.
func (c *checkpoints) onIteration([][]float64) bool {
	c.iterationIdx++
	const heartbeat = time.Second
	if time.Since(c.lastBeat) > heartbeat {
		log.Printf("train iteration %d of %d", c.iterationIdx, c.opts.Iterations)
		c.lastBeat = time.Now()
	}
	if c.opts.SnapshotPath != "" && c.opts.SnapshotInterval > 0 && time.Since(c.lastSave) >= c.opts.SnapshotInterval {
		if err := c.saveSnapshot(); err != nil {
			log.Printf("warning: %v", err)
		}
	}
	return true
}

// snapshotExists reports whether a snapshot file is present to resume from.
func (c *checkpoints) snapshotExists() bool {
	if c.opts.SnapshotPath == "" {
		return false
	}
	_, err := os.Stat(c.opts.SnapshotPath)
	return err == nil
}
