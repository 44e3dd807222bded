package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawCourse struct {
	Number       uint64
	Name         string
	Capacity     uint64
	Type         string
	HoursPerWeek uint64
}

type RawTeacher struct {
	Id              uint64
	Name            string
	Courses         []uint64
	MaxHoursPerWeek uint64
}

type RawClassroom struct {
	Number   string
	Capacity uint64
}

type RawTimeSlot struct {
	Id   string
	Day  string
	Time string
}

type RawGroup struct {
	Id      uint64
	Name    string
	Size    uint64
	Courses []uint64
}

// RawQualification is a row of the teacher-constraints table: extra courses a teacher may teach and, optionally, a load limit override
type RawQualification struct {
	Teacher         uint64
	Courses         []uint64
	MaxHoursPerWeek uint64
}

type RawInput struct {
	Courses        []RawCourse
	Teachers       []RawTeacher
	Classrooms     []RawClassroom
	TimeSlots      []RawTimeSlot
	Groups         []RawGroup
	Qualifications []RawQualification
}

func InputFromJson(file string) (*Data, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return nil, err
	}
	return InputFromMap(inputJson)
}

func InputFromMap(inputMap map[string]any) (*Data, error) {
	var rawInput RawInput
	if err := mapstructure.Decode(inputMap, &rawInput); err != nil {
		return nil, fmt.Errorf("cannot decode input: %w", err)
	}
	return ProcessRawInput(rawInput)
}

// ProcessRawInput builds validated domain data. Teacher course lists and the qualifications table are merged into one qualification relation
func ProcessRawInput(rawInput RawInput) (*Data, error) {
	//** Courses
	courses := make([]*Course, 0, len(rawInput.Courses))
	for _, raw := range rawInput.Courses {
		course, err := NewCourse(raw.Number, raw.Name, raw.Capacity, CourseType(raw.Type), raw.HoursPerWeek)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	coursesByNumber := lo.KeyBy(courses, func(course *Course) uint64 { return course.Number })

	//** Teachers (qualifications are unified here)
	qualifications := make(map[uint64]RawQualification)
	for _, qualification := range rawInput.Qualifications {
		if !lo.ContainsBy(rawInput.Teachers, func(teacher RawTeacher) bool { return teacher.Id == qualification.Teacher }) {
			return nil, fmt.Errorf("%w: qualification references unknown teacher %v", ErrInvalidEntity, qualification.Teacher)
		}
		existing := qualifications[qualification.Teacher]
		existing.Teacher = qualification.Teacher
		existing.Courses = append(existing.Courses, qualification.Courses...)
		if qualification.MaxHoursPerWeek > 0 {
			existing.MaxHoursPerWeek = qualification.MaxHoursPerWeek
		}
		qualifications[qualification.Teacher] = existing
	}

	teachers := make([]*Teacher, 0, len(rawInput.Teachers))
	for _, raw := range rawInput.Teachers {
		qualifiedCourses := slices.Clone(raw.Courses)
		maxHours := raw.MaxHoursPerWeek
		if qualification, ok := qualifications[raw.Id]; ok {
			qualifiedCourses = append(qualifiedCourses, qualification.Courses...)
			if qualification.MaxHoursPerWeek > 0 {
				maxHours = qualification.MaxHoursPerWeek
			}
		}
		qualifiedCourses = lo.Uniq(qualifiedCourses)

		if unknown, ok := lo.Find(qualifiedCourses, func(number uint64) bool { _, ok := coursesByNumber[number]; return !ok }); ok {
			return nil, fmt.Errorf("%w: teacher %q is qualified for unknown course %v", ErrInvalidEntity, raw.Name, unknown)
		}

		teacher, err := NewTeacher(raw.Id, raw.Name, qualifiedCourses, maxHours)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}

	//** Classrooms
	classrooms := make([]*Classroom, 0, len(rawInput.Classrooms))
	for _, raw := range rawInput.Classrooms {
		classroom, err := NewClassroom(raw.Number, raw.Capacity)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}

	//** Time slots
	timeSlots := make([]*TimeSlot, 0, len(rawInput.TimeSlots))
	for _, raw := range rawInput.TimeSlots {
		slot, err := NewTimeSlot(raw.Id, raw.Day, raw.Time)
		if err != nil {
			return nil, err
		}
		timeSlots = append(timeSlots, slot)
	}

	//** Groups
	groups := make([]*StudentGroup, 0, len(rawInput.Groups))
	for _, raw := range rawInput.Groups {
		groupCourses := make([]*Course, 0, len(raw.Courses))
		for _, number := range raw.Courses {
			course, ok := coursesByNumber[number]
			if !ok {
				return nil, fmt.Errorf("%w: group %q requires unknown course %v", ErrInvalidEntity, raw.Name, number)
			}
			groupCourses = append(groupCourses, course)
		}

		group, err := NewStudentGroup(raw.Id, raw.Name, raw.Size, groupCourses)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return NewData(courses, teachers, classrooms, timeSlots, groups)
}
