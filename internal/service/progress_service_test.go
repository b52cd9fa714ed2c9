package service

import (
	"testing"

	"learnsphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProgressStore serves canned counts and tracks writes to the enrollment
// cache.
type fakeProgressStore struct {
	totalLessons     int64
	lessonIDs        []uint
	completedLessons int64
	totalQuestions   int64
	correctAnswers   int64

	progress    int
	hasProgress bool
	writes      int
	getErr      error
	setErr      error
}

func (f *fakeProgressStore) CountLessons(courseID uint) (int64, error) { return f.totalLessons, nil }
func (f *fakeProgressStore) LessonIDs(courseID uint) ([]uint, error)   { return f.lessonIDs, nil }
func (f *fakeProgressStore) CountCompletedLessons(userID uint, lessonIDs []uint) (int64, error) {
	return f.completedLessons, nil
}
func (f *fakeProgressStore) CountQuizQuestions(courseID uint) (int64, error) {
	return f.totalQuestions, nil
}
func (f *fakeProgressStore) CountCorrectAnswers(userID, courseID uint) (int64, error) {
	return f.correctAnswers, nil
}
func (f *fakeProgressStore) GetEnrollmentProgress(userID, courseID uint) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.progress, nil
}
func (f *fakeProgressStore) SetEnrollmentProgress(userID, courseID uint, progress int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.progress = progress
	f.hasProgress = true
	f.writes++
	return nil
}

type publishedEvent struct {
	userID   uint
	courseID uint
	progress int
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) PublishProgress(userID, courseID uint, progress int) {
	f.events = append(f.events, publishedEvent{userID, courseID, progress})
}

func TestAggregateCompletion(t *testing.T) {
	tests := []struct {
		name             string
		totalLessons     int
		completedLessons int
		totalQuestions   int
		correctAnswers   int
		want             int
	}{
		{"empty course", 0, 0, 0, 0, 0},
		{"all lessons no quiz", 4, 4, 0, 0, 50},
		{"half lessons perfect quiz", 4, 2, 10, 10, 75},
		{"quiz only course aced", 0, 0, 5, 5, 50},
		{"everything done", 10, 10, 10, 10, 100},
		{"one third of lessons rounds up", 3, 1, 0, 0, 17},
		{"half and half", 4, 2, 10, 5, 50},
		{"nothing done yet", 5, 0, 8, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateCompletion(tt.totalLessons, tt.completedLessons, tt.totalQuestions, tt.correctAnswers)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateCompletionStaysInRange(t *testing.T) {
	// Degenerate inputs (more completions than totals) must still clamp.
	assert.Equal(t, 100, AggregateCompletion(2, 10, 2, 10))
	assert.Equal(t, 0, AggregateCompletion(5, -3, 0, 0))
}

func TestSynchronizeWritesWhenStoredUnknown(t *testing.T) {
	store := &fakeProgressStore{}
	pub := &fakePublisher{}
	svc := NewProgressService(store, pub)

	written, err := svc.Synchronize(1, 2, 40, nil)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 40, store.progress)
	assert.Equal(t, 1, store.writes)

	require.Len(t, pub.events, 1)
	assert.Equal(t, publishedEvent{1, 2, 40}, pub.events[0])
}

func TestSynchronizeSkipsUnchangedValue(t *testing.T) {
	store := &fakeProgressStore{progress: 40}
	pub := &fakePublisher{}
	svc := NewProgressService(store, pub)

	stored := 40
	written, err := svc.Synchronize(1, 2, 40, &stored)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Zero(t, store.writes)
	assert.Empty(t, pub.events)
}

func TestSynchronizeWritesChangedValue(t *testing.T) {
	store := &fakeProgressStore{progress: 25}
	pub := &fakePublisher{}
	svc := NewProgressService(store, pub)

	stored := 25
	written, err := svc.Synchronize(7, 9, 60, &stored)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 60, store.progress)
	require.Len(t, pub.events, 1)
	assert.Equal(t, publishedEvent{7, 9, 60}, pub.events[0])
}

func TestSynchronizeFailedWriteReturnsError(t *testing.T) {
	store := &fakeProgressStore{setErr: assert.AnError}
	svc := NewProgressService(store, &fakePublisher{})

	_, err := svc.Synchronize(1, 2, 40, nil)
	assert.Error(t, err)
}

func TestRecomputeDerivesAndWrites(t *testing.T) {
	store := &fakeProgressStore{
		totalLessons:     4,
		lessonIDs:        []uint{1, 2, 3, 4},
		completedLessons: 2,
		totalQuestions:   10,
		correctAnswers:   10,
	}
	pub := &fakePublisher{}
	svc := NewProgressService(store, pub)

	progress, err := svc.Recompute(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 75, progress)
	assert.Equal(t, 75, store.progress)
	assert.Equal(t, 1, store.writes)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	store := &fakeProgressStore{
		totalLessons:     4,
		lessonIDs:        []uint{1, 2, 3, 4},
		completedLessons: 4,
	}
	svc := NewProgressService(store, &fakePublisher{})

	_, err := svc.Recompute(1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, store.writes)

	// Same facts again: no second write.
	progress, err := svc.Recompute(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 50, progress)
	assert.Equal(t, 1, store.writes)
}

func TestRecomputeRequiresEnrollment(t *testing.T) {
	store := &fakeProgressStore{getErr: util.ErrNotEnrolled}
	svc := NewProgressService(store, &fakePublisher{})

	_, err := svc.Recompute(1, 2)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}
