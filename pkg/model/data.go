package model

import (
	"fmt"

	"github.com/samber/lo"
)

// Data is the catalog a run works on. It is loaded once and treated as read-only, except for the teachers' load counters
type Data struct {
	Courses    []*Course
	Teachers   []*Teacher
	Classrooms []*Classroom
	TimeSlots  []*TimeSlot
	Groups     []*StudentGroup

	qualified map[uint64][]*Teacher // Course number -> qualified teachers
}

func NewData(courses []*Course, teachers []*Teacher, classrooms []*Classroom, timeSlots []*TimeSlot, groups []*StudentGroup) (*Data, error) {
	//** Verify uniqueness of identifiers
	if duplicates := lo.FindDuplicatesBy(courses, func(course *Course) uint64 { return course.Number }); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate course number %v", ErrInvalidEntity, duplicates[0].Number)
	}
	if duplicates := lo.FindDuplicatesBy(teachers, func(teacher *Teacher) uint64 { return teacher.Id }); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate teacher id %v", ErrInvalidEntity, duplicates[0].Id)
	}
	if duplicates := lo.FindDuplicatesBy(classrooms, func(classroom *Classroom) string { return classroom.Number }); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate classroom %q", ErrInvalidEntity, duplicates[0].Number)
	}
	if duplicates := lo.FindDuplicatesBy(timeSlots, func(slot *TimeSlot) string { return slot.Id }); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate time slot %q", ErrInvalidEntity, duplicates[0].Id)
	}
	if duplicates := lo.FindDuplicatesBy(groups, func(group *StudentGroup) uint64 { return group.Id }); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate student group id %v", ErrInvalidEntity, duplicates[0].Id)
	}

	//** Verify that every group course belongs to the catalog
	known := lo.SliceToMap(courses, func(course *Course) (*Course, bool) { return course, true })
	for _, group := range groups {
		for _, course := range group.Courses {
			if !known[course] {
				return nil, fmt.Errorf("%w: group %q requires course %v which is not in the catalog", ErrInvalidEntity, group.Name, course.Number)
			}
		}
	}

	if len(classrooms) == 0 {
		return nil, fmt.Errorf("%w: at least one classroom is required", ErrInvalidEntity)
	} else if len(timeSlots) == 0 {
		return nil, fmt.Errorf("%w: at least one time slot is required", ErrInvalidEntity)
	}

	data := &Data{
		Courses:    courses,
		Teachers:   teachers,
		Classrooms: classrooms,
		TimeSlots:  timeSlots,
		Groups:     groups,
		qualified:  make(map[uint64][]*Teacher),
	}
	for _, teacher := range teachers {
		for _, course := range lo.Uniq(teacher.Courses) {
			data.qualified[course] = append(data.qualified[course], teacher)
		}
	}
	return data, nil
}

// QualifiedTeachers returns the teachers that can currently teach the course
func (data *Data) QualifiedTeachers(course uint64) []*Teacher {
	return lo.Filter(data.qualified[course], func(teacher *Teacher, _ int) bool {
		return teacher.CanTeach(course, 0)
	})
}

// RequiredSessions returns how many weekly sessions a group needs for the course
func (data *Data) RequiredSessions(course *Course) int {
	if course.Type == Lecture {
		return 2
	}
	return 1
}

// ExpectedSessions returns the nominal chromosome length, ignoring sessions that cannot be assigned a teacher
func (data *Data) ExpectedSessions() int {
	return lo.SumBy(data.Groups, func(group *StudentGroup) int {
		return lo.SumBy(group.Courses, data.RequiredSessions)
	})
}

func (data *Data) ResetTeacherHours() {
	lo.ForEach(data.Teachers, func(teacher *Teacher, _ int) { teacher.ResetHours() })
}

func (data *Data) Group(id uint64) (*StudentGroup, bool) {
	return lo.Find(data.Groups, func(group *StudentGroup) bool { return group.Id == id })
}

func (data *Data) Course(number uint64) (*Course, bool) {
	return lo.Find(data.Courses, func(course *Course) bool { return course.Number == number })
}

func (data *Data) Teacher(id uint64) (*Teacher, bool) {
	return lo.Find(data.Teachers, func(teacher *Teacher) bool { return teacher.Id == id })
}

func (data *Data) Classroom(number string) (*Classroom, bool) {
	return lo.Find(data.Classrooms, func(classroom *Classroom) bool { return classroom.Number == number })
}

func (data *Data) TimeSlot(id string) (*TimeSlot, bool) {
	return lo.Find(data.TimeSlots, func(slot *TimeSlot) bool { return slot.Id == id })
}
