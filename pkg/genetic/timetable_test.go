package genetic

import (
	"testing"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	t.Run("Session count", func(t *testing.T) {
		//** Arrange
		data := loadSample(t)
		expected := lo.SumBy(data.Groups, func(group *model.StudentGroup) int {
			return lo.SumBy(group.Courses, func(course *model.Course) int {
				if course.Type == model.Lecture {
					return 2
				}
				return 1
			})
		})

		//** Act
		timetable := NewTimetable(data, FitnessCombined).Initialize(newRng(), zap.NewNop())

		//** Assert
		assert.Equal(t, expected, timetable.Len())
		assert.Equal(t, data.ExpectedSessions(), timetable.Len())
		for _, session := range timetable.sessions {
			require.True(t, session.Resolved())
			assert.True(t, session.Teacher.CanTeach(session.Course.Number, 0))
		}
	})

	t.Run("Teacher loads are not charged", func(t *testing.T) {
		//** Arrange
		data := loadSample(t)

		//** Act
		for range 10 {
			NewTimetable(data, FitnessCombined).Initialize(newRng(), zap.NewNop())
		}

		//** Assert
		for _, teacher := range data.Teachers {
			assert.Zero(t, teacher.CurrentHours(), teacher.Name)
		}
		assert.Len(t, data.QualifiedTeachers(1), 1)
	})

	t.Run("Sessions without a qualified teacher are skipped", func(t *testing.T) {
		//** Arrange
		lecture, lab := mustCourse(t, 1, model.Lecture), mustCourse(t, 2, model.Lab)
		group := mustGroup(t, 1, 10, lecture, lab)
		data := mustData(t,
			[]*model.Course{lecture, lab},
			[]*model.Teacher{mustTeacher(t, 1, 2)},
			[]*model.Classroom{mustClassroom(t, "101", 30)},
			[]*model.TimeSlot{mustSlot(t, "MON1", "Monday", "08:40 - 10:15")},
			[]*model.StudentGroup{group},
		)
		core, logs := observer.New(zap.WarnLevel)

		//** Act
		timetable := NewTimetable(data, FitnessCombined).Initialize(newRng(), zap.New(core))

		//** Assert
		assert.Equal(t, 1, timetable.Len())
		assert.Equal(t, lab, timetable.sessions[0].Course)
		assert.Equal(t, 2, logs.FilterMessage("no qualified teacher, session skipped").Len())
	})
}

func TestTimetableFitnessCache(t *testing.T) {
	//** Arrange
	data := loadSample(t)
	timetable := NewTimetable(data, FitnessConflicts).Initialize(newRng(), zap.NewNop())
	require.True(t, timetable.Dirty())

	//** Act
	fitness := timetable.Fitness()

	//** Assert
	assert.False(t, timetable.Dirty())
	assert.Equal(t, fitness, timetable.Fitness())

	// Collide every session on one slot without telling the timetable
	for _, session := range timetable.sessions {
		session.TimeSlot = data.TimeSlots[0]
	}
	assert.Equal(t, fitness, timetable.Fitness())

	timetable.Invalidate()
	assert.Less(t, timetable.Fitness(), fitness)
}

func TestTimetableClone(t *testing.T) {
	//** Arrange
	data := loadSample(t)
	original := NewTimetable(data, FitnessCombined).Initialize(newRng(), zap.NewNop())
	fitness := original.Fitness()
	before := slotIds(original)

	//** Act
	clone := original.Clone()
	for _, session := range clone.sessions {
		session.TimeSlot = data.TimeSlots[len(data.TimeSlots)-1]
	}
	clone.Invalidate()

	//** Assert
	assert.Equal(t, before, slotIds(original))
	assert.Equal(t, fitness, original.Fitness())
	assert.False(t, original.Dirty())
	for index := range original.sessions {
		assert.NotSame(t, original.sessions[index], clone.sessions[index])
	}
}

func TestTimetableSessions(t *testing.T) {
	data := loadSample(t)
	timetable := NewTimetable(data, FitnessCombined).Initialize(newRng(), zap.NewNop())
	timetable.Fitness()

	sessions := timetable.Sessions()
	sessions[0].TimeSlot = nil

	assert.False(t, timetable.Dirty())
	assert.NotNil(t, timetable.sessions[0].TimeSlot)
	assert.Len(t, sessions, timetable.Len())
}
