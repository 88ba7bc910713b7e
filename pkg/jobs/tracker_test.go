package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Run("should track one job per kind", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))

		job, active := tracker.Active("podcast")
		require.True(t, active)
		assert.Equal(t, "task-1", job.TaskID)
		assert.False(t, job.StartedAt.IsZero())
	})

	t.Run("should reject a second job of an occupied kind", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))

		err := tracker.Begin("podcast", "task-2")
		assert.ErrorIs(t, err, ErrJobInFlight)
	})

	t.Run("should treat a repeated task id as a no-op", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))
		assert.NoError(t, tracker.Begin("podcast", "task-1"))
	})

	t.Run("should allow different kinds concurrently", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))
		require.NoError(t, tracker.Begin("image", "task-2"))

		assert.Len(t, tracker.ActiveJobs(), 2)
	})

	t.Run("should free the kind on resolve", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))

		tracker.Resolve("podcast")

		_, active := tracker.Active("podcast")
		assert.False(t, active)
		assert.NoError(t, tracker.Begin("podcast", "task-2"))
	})

	t.Run("should resolve by task id", func(t *testing.T) {
		tracker := NewTracker()
		require.NoError(t, tracker.Begin("podcast", "task-1"))

		assert.True(t, tracker.ResolveTask("task-1"))
		assert.False(t, tracker.ResolveTask("task-1"))

		_, active := tracker.Active("podcast")
		assert.False(t, active)
	})
}
