package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEntity is wrapped by every construction-time validation failure
var ErrInvalidEntity = errors.New("invalid entity")

var validate = validator.New(validator.WithRequiredStructEnabled())

type CourseType string

const (
	Lecture CourseType = "lecture"
	Lab     CourseType = "lab"
)

var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type Course struct {
	Number       uint64     `validate:"gt=0"`
	Name         string     `validate:"required"`
	Capacity     uint64     `validate:"gt=0"` // Maximum number of students
	Type         CourseType `validate:"oneof=lecture lab"`
	HoursPerWeek uint64     `validate:"gt=0"`
}

type Teacher struct {
	Id              uint64   `validate:"gt=0"`
	Name            string   `validate:"required"`
	Courses         []uint64 `validate:"dive,gt=0"` // Numbers of the courses the teacher is qualified for
	MaxHoursPerWeek uint64   `validate:"gt=0"`

	currentHours uint64
}

type Classroom struct {
	Number   string `validate:"required"`
	Capacity uint64 `validate:"gt=0"` // Seating capacity
}

type TimeSlot struct {
	Id   string `validate:"required"`
	Day  string `validate:"required"`
	Time string `validate:"required"` // "HH:MM - HH:MM"

	startMinutes int
}

type StudentGroup struct {
	Id      uint64    `validate:"gt=0"`
	Name    string    `validate:"required"`
	Size    uint64    `validate:"gt=0"`
	Courses []*Course `validate:"dive,required"`
}

func NewCourse(number uint64, name string, capacity uint64, courseType CourseType, hoursPerWeek uint64) (*Course, error) {
	course := &Course{
		Number:       number,
		Name:         name,
		Capacity:     capacity,
		Type:         courseType,
		HoursPerWeek: hoursPerWeek,
	}
	if err := validateEntity("course", course); err != nil {
		return nil, err
	}
	return course, nil
}

func NewTeacher(id uint64, name string, courses []uint64, maxHoursPerWeek uint64) (*Teacher, error) {
	teacher := &Teacher{
		Id:              id,
		Name:            name,
		Courses:         slices.Clone(courses),
		MaxHoursPerWeek: maxHoursPerWeek,
	}
	if err := validateEntity("teacher", teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

func NewClassroom(number string, capacity uint64) (*Classroom, error) {
	classroom := &Classroom{
		Number:   number,
		Capacity: capacity,
	}
	if err := validateEntity("classroom", classroom); err != nil {
		return nil, err
	}
	return classroom, nil
}

func NewTimeSlot(id, day, time string) (*TimeSlot, error) {
	slot := &TimeSlot{
		Id:   id,
		Day:  day,
		Time: time,
	}
	if err := validateEntity("time slot", slot); err != nil {
		return nil, err
	}
	if !slices.Contains(Days, day) {
		return nil, fmt.Errorf("%w: time slot %q: unknown day %q", ErrInvalidEntity, id, day)
	}

	minutes, err := parseStartMinutes(time)
	if err != nil {
		return nil, fmt.Errorf("%w: time slot %q: %v", ErrInvalidEntity, id, err)
	}
	slot.startMinutes = minutes
	return slot, nil
}

func NewStudentGroup(id uint64, name string, size uint64, courses []*Course) (*StudentGroup, error) {
	group := &StudentGroup{
		Id:      id,
		Name:    name,
		Size:    size,
		Courses: slices.Clone(courses),
	}
	if err := validateEntity("student group", group); err != nil {
		return nil, err
	}
	return group, nil
}

// CanTeach checks whether the teacher is qualified for the course and still has room for the additional hours
func (teacher *Teacher) CanTeach(course uint64, additionalHours uint64) bool {
	return slices.Contains(teacher.Courses, course) &&
		teacher.currentHours+additionalHours <= teacher.MaxHoursPerWeek
}

// AddHours charges hours against the weekly limit checked by CanTeach. Random initialization does not charge
// teachers, so assigned sessions never exhaust a teacher's load; callers that track loads charge them explicitly
func (teacher *Teacher) AddHours(hours uint64) {
	teacher.currentHours += hours
}

func (teacher *Teacher) ResetHours() {
	teacher.currentHours = 0
}

func (teacher *Teacher) CurrentHours() uint64 {
	return teacher.currentHours
}

// StartMinutes returns the slot's start time as minutes since midnight
func (slot *TimeSlot) StartMinutes() int {
	return slot.startMinutes
}

func (course *Course) String() string {
	return fmt.Sprintf("%v (%v, Max students: %v)", course.Name, course.Type, course.Capacity)
}

func (teacher *Teacher) String() string {
	return fmt.Sprintf("%v (%v)", teacher.Name, teacher.Id)
}

func (classroom *Classroom) String() string {
	return fmt.Sprintf("%v (%v)", classroom.Number, classroom.Capacity)
}

func (slot *TimeSlot) String() string {
	return fmt.Sprintf("%v %v", slot.Day, slot.Time)
}

func (group *StudentGroup) String() string {
	return fmt.Sprintf("%v (Students: %v)", group.Name, group.Size)
}

func parseStartMinutes(window string) (int, error) {
	start, _, found := strings.Cut(window, "-")
	if !found {
		return 0, fmt.Errorf("time window %q must have the form \"HH:MM - HH:MM\"", window)
	}

	hoursStr, minutesStr, found := strings.Cut(strings.TrimSpace(start), ":")
	if !found {
		return 0, fmt.Errorf("start time %q must have the form \"HH:MM\"", start)
	}
	hours, err := strconv.Atoi(hoursStr)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", start)
	}
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", start)
	}
	return hours*60 + minutes, nil
}

func validateEntity(kind string, entity any) error {
	err := validate.Struct(entity)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fieldError := validationErrors[0]
		return fmt.Errorf("%w: %v: field %v failed on %q (value: %v)", ErrInvalidEntity, kind, fieldError.Field(), fieldError.Tag(), fieldError.Value())
	}
	return fmt.Errorf("%w: %v: %v", ErrInvalidEntity, kind, err)
}
