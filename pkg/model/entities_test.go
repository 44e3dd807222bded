package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCourse(t *testing.T) {
	t.Run("Correct flow", func(t *testing.T) {
		course, err := NewCourse(1, "Decision Theory", 100, Lecture, 2)

		require.NoError(t, err)
		assert.Equal(t, uint64(1), course.Number)
		assert.Equal(t, Lecture, course.Type)
	})

	t.Run("Validation flow", func(t *testing.T) {
		scenarios := []struct {
			name         string
			number       uint64
			courseName   string
			capacity     uint64
			courseType   CourseType
			hoursPerWeek uint64
		}{
			{"zero number", 0, "Decision Theory", 100, Lecture, 2},
			{"empty name", 1, "", 100, Lecture, 2},
			{"zero capacity", 1, "Decision Theory", 0, Lecture, 2},
			{"unknown type", 1, "Decision Theory", 100, CourseType("seminar"), 2},
			{"zero hours", 1, "Decision Theory", 100, Lab, 0},
		}

		for _, scenario := range scenarios {
			t.Run(scenario.name, func(t *testing.T) {
				_, err := NewCourse(scenario.number, scenario.courseName, scenario.capacity, scenario.courseType, scenario.hoursPerWeek)
				assert.ErrorIs(t, err, ErrInvalidEntity)
			})
		}
	})
}

func TestNewTeacher(t *testing.T) {
	teacher, err := NewTeacher(1, "Mashchenko", []uint64{1, 2}, 4)
	require.NoError(t, err)

	//** Qualification and load
	assert.True(t, teacher.CanTeach(1, 0))
	assert.False(t, teacher.CanTeach(3, 0))
	assert.True(t, teacher.CanTeach(2, 4))
	assert.False(t, teacher.CanTeach(2, 5))

	teacher.AddHours(3)
	assert.Equal(t, uint64(3), teacher.CurrentHours())
	assert.False(t, teacher.CanTeach(1, 2))

	teacher.ResetHours()
	assert.True(t, teacher.CanTeach(1, 2))

	//** Validation
	_, err = NewTeacher(0, "Mashchenko", nil, 4)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	_, err = NewTeacher(1, "Mashchenko", []uint64{0}, 4)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	_, err = NewTeacher(1, "Mashchenko", nil, 0)
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestNewClassroom(t *testing.T) {
	_, err := NewClassroom("301", 30)
	assert.NoError(t, err)

	_, err = NewClassroom("", 30)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	_, err = NewClassroom("301", 0)
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestNewTimeSlot(t *testing.T) {
	t.Run("Start minutes", func(t *testing.T) {
		scenarios := map[string]int{
			"08:40 - 10:15": 8*60 + 40,
			"10:35 - 12:10": 10*60 + 35,
			"12:20 - 13:55": 12*60 + 20,
			"7:05-8:00":     7*60 + 5,
		}

		for window, expected := range scenarios {
			slot, err := NewTimeSlot("MT1", "Monday", window)
			require.NoError(t, err)
			assert.Equal(t, expected, slot.StartMinutes())
		}
	})

	t.Run("Validation flow", func(t *testing.T) {
		for _, window := range []string{"", "08:40", "8h - 9h", "25:00 - 26:00", "08:75 - 09:00"} {
			_, err := NewTimeSlot("MT1", "Monday", window)
			assert.ErrorIs(t, err, ErrInvalidEntity, window)
		}

		_, err := NewTimeSlot("MT1", "Someday", "08:40 - 10:15")
		assert.ErrorIs(t, err, ErrInvalidEntity)
		_, err = NewTimeSlot("", "Monday", "08:40 - 10:15")
		assert.ErrorIs(t, err, ErrInvalidEntity)
	})
}

func TestNewStudentGroup(t *testing.T) {
	course, err := NewCourse(1, "Decision Theory", 100, Lecture, 2)
	require.NoError(t, err)

	group, err := NewStudentGroup(1, "MI-41-1", 9, []*Course{course, course})
	require.NoError(t, err)
	assert.Len(t, group.Courses, 2)

	_, err = NewStudentGroup(1, "MI-41-1", 0, []*Course{course})
	assert.ErrorIs(t, err, ErrInvalidEntity)
	_, err = NewStudentGroup(1, "MI-41-1", 9, []*Course{nil})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestStudySessionClone(t *testing.T) {
	course, _ := NewCourse(1, "Decision Theory", 100, Lecture, 2)
	group, _ := NewStudentGroup(1, "MI-41-1", 9, []*Course{course})
	slot1, _ := NewTimeSlot("MT1", "Monday", "08:40 - 10:15")
	slot2, _ := NewTimeSlot("MT2", "Monday", "10:35 - 12:10")

	session := NewStudySession(0, course, group)
	assert.False(t, session.Resolved())
	session.TimeSlot = slot1

	clone := session.Clone()
	clone.TimeSlot = slot2

	assert.Equal(t, slot1, session.TimeSlot)
	assert.Equal(t, slot2, clone.TimeSlot)
	assert.Same(t, session.Course, clone.Course)
}
