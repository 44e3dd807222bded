package genetic

import (
	"math/rand/v2"
	"testing"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/stretchr/testify/require"
)

const sampleInputFile = "../../testdata/input.json"

func loadSample(t *testing.T) *model.Data {
	data, err := model.InputFromJson(sampleInputFile)
	require.NoError(t, err)
	return data
}

func newRng() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func newEngine(t *testing.T, data *model.Data, configure func(config *Config)) *Engine {
	config := DefaultConfig()
	config.Seed = 42
	if configure != nil {
		configure(&config)
	}
	engine, err := New(config, data)
	require.NoError(t, err)
	return engine
}

func mustCourse(t *testing.T, number uint64, courseType model.CourseType) *model.Course {
	course, err := model.NewCourse(number, "Course", 100, courseType, 2)
	require.NoError(t, err)
	return course
}

func mustTeacher(t *testing.T, id uint64, courses ...uint64) *model.Teacher {
	teacher, err := model.NewTeacher(id, "Teacher", courses, 40)
	require.NoError(t, err)
	return teacher
}

func mustClassroom(t *testing.T, number string, capacity uint64) *model.Classroom {
	classroom, err := model.NewClassroom(number, capacity)
	require.NoError(t, err)
	return classroom
}

func mustSlot(t *testing.T, id, day, window string) *model.TimeSlot {
	slot, err := model.NewTimeSlot(id, day, window)
	require.NoError(t, err)
	return slot
}

func mustGroup(t *testing.T, id uint64, size uint64, courses ...*model.Course) *model.StudentGroup {
	group, err := model.NewStudentGroup(id, "Group", size, courses)
	require.NoError(t, err)
	return group
}

func mustData(t *testing.T, courses []*model.Course, teachers []*model.Teacher, classrooms []*model.Classroom, slots []*model.TimeSlot, groups []*model.StudentGroup) *model.Data {
	data, err := model.NewData(courses, teachers, classrooms, slots, groups)
	require.NoError(t, err)
	return data
}

func session(id uint64, course *model.Course, group *model.StudentGroup, teacher *model.Teacher, classroom *model.Classroom, slot *model.TimeSlot) *model.StudySession {
	result := model.NewStudySession(id, course, group)
	result.Teacher = teacher
	result.Classroom = classroom
	result.TimeSlot = slot
	return result
}

func slotIds(timetable *Timetable) []string {
	ids := make([]string, 0, timetable.Len())
	for _, session := range timetable.sessions {
		ids = append(ids, session.TimeSlot.Id)
	}
	return ids
}
