package tracker

import (
	"fmt"
	"time"

	"github.com/deckhand-io/deckhand/pkg/types"
)

// runSteps walks the scripted step sequence for the job's action,
// appending one log line per step and advancing progress as it goes.
// The final completed/100 write belongs to the caller.
func (t *Tracker) runSteps(job *types.Job) error {
	steps := actionSteps(job)

	for i, step := range steps {
		t.AppendStep(job.ID, step)

		// Leave the last increment for the terminal write
		progress := (i + 1) * 100 / len(steps)
		if progress < 100 {
			t.setProgress(job, progress)
		}

		if t.stepDelay > 0 {
			time.Sleep(t.stepDelay)
		}
	}
	return nil
}

// actionSteps returns the log line sequence for each deployment action
func actionSteps(job *types.Job) []string {
	switch job.Action {
	case types.ActionBuild:
		return []string{
			"Starting Docker build...",
			fmt.Sprintf("Building image: %s", job.Image),
			"Build completed successfully",
		}
	case types.ActionRun:
		return []string{
			"Starting container...",
			fmt.Sprintf("Running container from image: %s", job.Image),
			fmt.Sprintf("Mapping ports: %s", job.PortMapping),
			"Container started successfully",
		}
	case types.ActionRestart:
		return []string{
			"Stopping existing container...",
			"Starting new container...",
			fmt.Sprintf("Container restarted with image: %s", job.Image),
		}
	}
	return nil
}
