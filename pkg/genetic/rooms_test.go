package genetic

import (
	"testing"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassignClassrooms(t *testing.T) {
	course := mustCourse(t, 1, model.Lab)
	small, large := mustGroup(t, 1, 10, course), mustGroup(t, 2, 50, course)
	extra := mustGroup(t, 3, 15, course)
	teacher1, teacher2, teacher3 := mustTeacher(t, 1, 1), mustTeacher(t, 2, 1), mustTeacher(t, 3, 1)
	room20, room60 := mustClassroom(t, "20", 20), mustClassroom(t, "60", 60)
	monday, tuesday := mustSlot(t, "MON1", "Monday", "08:40 - 10:15"), mustSlot(t, "TUE1", "Tuesday", "08:40 - 10:15")
	data := mustData(t,
		[]*model.Course{course},
		[]*model.Teacher{teacher1, teacher2, teacher3},
		[]*model.Classroom{room20, room60},
		[]*model.TimeSlot{monday, tuesday},
		[]*model.StudentGroup{small, large, extra},
	)

	t.Run("Every session seated", func(t *testing.T) {
		//** Arrange
		timetable := NewTimetable(data, FitnessConflicts)
		timetable.Append(
			session(0, course, small, teacher1, room20, monday),
			session(1, course, large, teacher2, room20, monday),
			session(2, course, extra, teacher3, room60, tuesday),
		)
		require.Equal(t, 2, timetable.Conflicts())

		//** Act
		unmatched, err := ReassignClassrooms(timetable)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, 0, unmatched)
		assert.Equal(t, 0, timetable.Conflicts())
		assert.Equal(t, room20, timetable.sessions[0].Classroom)
		assert.Equal(t, room60, timetable.sessions[1].Classroom)
	})

	t.Run("More sessions than classrooms", func(t *testing.T) {
		//** Arrange
		timetable := NewTimetable(data, FitnessConflicts)
		timetable.Append(
			session(0, course, small, teacher1, room20, monday),
			session(1, course, large, teacher2, room20, monday),
			session(2, course, extra, teacher3, room20, monday),
		)

		//** Act
		unmatched, err := ReassignClassrooms(timetable)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, 1, unmatched)
		assert.True(t, timetable.Dirty())
	})
}
