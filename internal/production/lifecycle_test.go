package production

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakeline/internal/apperrors"
	"bakeline/models"
)

func TestNextFollowsTransitionTable(t *testing.T) {
	allowed := map[models.ProcessStatus]map[Event]models.ProcessStatus{
		models.StatusPending:    {EventStart: models.StatusInProgress, EventCancel: models.StatusCancelled},
		models.StatusInProgress: {EventPause: models.StatusPaused, EventComplete: models.StatusCompleted, EventCancel: models.StatusCancelled},
		models.StatusPaused:     {EventResume: models.StatusInProgress, EventCancel: models.StatusCancelled},
		models.StatusCompleted:  {},
		models.StatusCancelled:  {},
	}

	for from, events := range allowed {
		for _, ev := range Events() {
			got, err := Next(from, ev)
			want, ok := events[ev]
			if ok {
				require.NoError(t, err, "%s --%s-->", from, ev)
				assert.Equal(t, want, got, "%s --%s-->", from, ev)
				continue
			}

			var transition *apperrors.InvalidTransitionError
			require.True(t, errors.As(err, &transition), "%s --%s--> should fail, got %v", from, ev, err)
			assert.Equal(t, string(from), transition.From)
			assert.Equal(t, string(ev), transition.Event)
			assert.Equal(t, from, got)
		}
	}
}

func TestTerminalStatusesAcceptNothing(t *testing.T) {
	for _, from := range []models.ProcessStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, ev := range Events() {
			_, err := Next(from, ev)
			assert.Error(t, err, "%s --%s-->", from, ev)
		}
	}
}

func TestParseEvent(t *testing.T) {
	ev, ok := ParseEvent(" Start ")
	require.True(t, ok)
	assert.Equal(t, EventStart, ev)
	assert.Equal(t, "started", ev.Description())

	_, ok = ParseEvent("explode")
	assert.False(t, ok)
}

func TestEventDescriptions(t *testing.T) {
	want := map[Event]string{
		EventStart:    "started",
		EventPause:    "paused",
		EventResume:   "resumed",
		EventComplete: "completed",
		EventCancel:   "cancelled",
	}
	for ev, description := range want {
		assert.Equal(t, description, ev.Description())
	}
}
