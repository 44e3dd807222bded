package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	data      *model.Data
	timetable *genetic.Timetable
}

func newFixture(t *testing.T) fixture {
	lecture, err := model.NewCourse(1, "Decision Theory", 100, model.Lecture, 2)
	require.NoError(t, err)
	lab, err := model.NewCourse(2, "Intelligent Systems", 30, model.Lab, 1)
	require.NoError(t, err)
	teacher, err := model.NewTeacher(1, "Mashchenko", []uint64{1, 2}, 16)
	require.NoError(t, err)
	room, err := model.NewClassroom("43", 120)
	require.NoError(t, err)
	monday, err := model.NewTimeSlot("MON2", "Monday", "10:35 - 12:10")
	require.NoError(t, err)
	earlyMonday, err := model.NewTimeSlot("MON1", "Monday", "08:40 - 10:15")
	require.NoError(t, err)
	tuesday, err := model.NewTimeSlot("TUE1", "Tuesday", "08:40 - 10:15")
	require.NoError(t, err)
	wednesday, err := model.NewTimeSlot("WED1", "Wednesday", "08:40 - 10:15")
	require.NoError(t, err)
	groupB, err := model.NewStudentGroup(2, "MI-41-2", 14, []*model.Course{lab})
	require.NoError(t, err)
	groupA, err := model.NewStudentGroup(1, "MI-41-1", 12, []*model.Course{lecture})
	require.NoError(t, err)

	data, err := model.NewData(
		[]*model.Course{lecture, lab},
		[]*model.Teacher{teacher},
		[]*model.Classroom{room},
		[]*model.TimeSlot{earlyMonday, monday, tuesday, wednesday},
		[]*model.StudentGroup{groupA, groupB},
	)
	require.NoError(t, err)

	assign := func(id uint64, course *model.Course, group *model.StudentGroup, slot *model.TimeSlot) *model.StudySession {
		session := model.NewStudySession(id, course, group)
		session.Teacher, session.Classroom, session.TimeSlot = teacher, room, slot
		return session
	}

	timetable := genetic.NewTimetable(data, genetic.FitnessConflicts)
	timetable.Append(
		assign(0, lab, groupB, wednesday),
		assign(1, lecture, groupA, tuesday),
		assign(2, lecture, groupA, monday),
		assign(3, lab, groupB, earlyMonday),
	)
	return fixture{data: data, timetable: timetable}
}

func TestRows(t *testing.T) {
	t.Run("Ordered by group, day and time", func(t *testing.T) {
		//** Arrange
		fixture := newFixture(t)

		//** Act
		rows, err := Rows(fixture.timetable)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, []uint64{2, 1, 3, 0}, lo.Map(rows, func(row Row, _ int) uint64 { return row.Session }))
		assert.Equal(t, "MI-41-1", rows[0].Group)
		assert.Equal(t, "Monday", rows[0].Day)
		assert.Equal(t, "Mashchenko", rows[0].Teacher)
	})

	t.Run("Unresolved session", func(t *testing.T) {
		//** Arrange
		fixture := newFixture(t)
		sessions := fixture.timetable.Sessions()
		sessions[1].Classroom = nil

		//** Act
		_, err := SessionRows(sessions)

		//** Assert
		assert.ErrorIs(t, err, ErrUnresolvedSession)
	})
}

func TestWriteText(t *testing.T) {
	//** Arrange
	fixture := newFixture(t)
	var buffer bytes.Buffer

	//** Act
	err := WriteText(&buffer, fixture.timetable)

	//** Assert
	require.NoError(t, err)
	output := buffer.String()
	assert.True(t, strings.HasPrefix(output, "Timetable:\n"))
	assert.Contains(t, output, "1 | MI-41-1 | Decision Theory (1) | 43 (120) | Mashchenko (1) | Monday | 10:35 - 12:10\n")
	assert.Contains(t, output, "\nWednesday\n")
	assert.Contains(t, output, "Fitness: 1\n")
	assert.Contains(t, output, "Number of conflicts: 0\n")
}

func TestWriteTable(t *testing.T) {
	fixture := newFixture(t)
	var buffer bytes.Buffer

	require.NoError(t, WriteTable(&buffer, fixture.timetable))

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Classroom (capacity)")
	assert.Contains(t, lines[1], "Decision Theory (1)")
}

func TestWriteCSV(t *testing.T) {
	fixture := newFixture(t)
	var buffer bytes.Buffer

	require.NoError(t, WriteCSV(&buffer, fixture.timetable))

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "session,group,group_size,course_number,course,course_type,classroom,classroom_capacity,teacher_id,teacher,time_slot,day,time", lines[0])
	assert.Equal(t, "2,MI-41-1,12,1,Decision Theory,lecture,43,120,1,Mashchenko,MON2,Monday,10:35 - 12:10", lines[1])
}

func TestWriteJSON(t *testing.T) {
	fixture := newFixture(t)
	var buffer bytes.Buffer

	require.NoError(t, WriteJSON(&buffer, fixture.timetable))

	var summary Summary
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &summary))
	assert.Equal(t, 1.0, summary.Fitness)
	assert.Equal(t, 0, summary.Conflicts)
	assert.Len(t, summary.Rows, 4)
	assert.Equal(t, "WED1", summary.Rows[3].TimeSlot)
}

func TestWriteData(t *testing.T) {
	fixture := newFixture(t)
	var buffer bytes.Buffer

	require.NoError(t, WriteData(&buffer, fixture.data))

	output := buffer.String()
	for _, expected := range []string{"Courses", "Classrooms", "Teachers", "Time slots", "Groups", "Mashchenko", "[1,2]", "MI-41-2"} {
		assert.Contains(t, output, expected)
	}
}

func TestWrite(t *testing.T) {
	fixture := newFixture(t)

	for _, format := range []Format{Text, Table, CSV, JSON} {
		var buffer bytes.Buffer
		assert.NoError(t, Write(&buffer, format, fixture.timetable), format)
		assert.NotZero(t, buffer.Len())
	}
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), fixture.timetable))
}
