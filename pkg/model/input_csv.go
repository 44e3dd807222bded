package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

const (
	ClassroomsFile         = "classrooms.csv"
	TeachersFile           = "teachers.csv"
	CoursesFile            = "courses.csv"
	GroupsFile             = "groups.csv"
	TimeSlotsFile          = "time_slots.csv"
	TeacherConstraintsFile = "teacher_constraints.csv" // Optional
)

type classroomRow struct {
	Number          string `csv:"number"`
	SeatingCapacity uint64 `csv:"seating_capacity"`
}

type teacherRow struct {
	Id              uint64 `csv:"id"`
	Name            string `csv:"name"`
	Courses         string `csv:"courses"`
	MaxHoursPerWeek uint64 `csv:"max_hours_per_week"`
}

type courseRow struct {
	Number              uint64 `csv:"number"`
	Name                string `csv:"name"`
	MaxNumberOfStudents uint64 `csv:"max_number_of_students"`
	CourseType          string `csv:"course_type"`
	HoursPerWeek        uint64 `csv:"hours_per_week"`
}

type groupRow struct {
	Id          uint64 `csv:"id"`
	Name        string `csv:"name"`
	NumStudents uint64 `csv:"num_students"`
	Courses     string `csv:"courses"`
}

type timeSlotRow struct {
	Id   string `csv:"id"`
	Time string `csv:"time"`
	Day  string `csv:"day"`
}

type teacherConstraintRow struct {
	Id              uint64 `csv:"id"`
	Courses         string `csv:"courses"`
	MaxHoursPerWeek uint64 `csv:"max_hours_per_week"`
}

// InputFromCsv loads the domain catalog from a directory holding one CSV file per entity kind
func InputFromCsv(directory string, delimiter rune) (*Data, error) {
	var (
		classrooms  []*classroomRow
		teachers    []*teacherRow
		courses     []*courseRow
		groups      []*groupRow
		timeSlots   []*timeSlotRow
		constraints []*teacherConstraintRow
	)

	files := []struct {
		name string
		rows any
	}{
		{ClassroomsFile, &classrooms},
		{TeachersFile, &teachers},
		{CoursesFile, &courses},
		{GroupsFile, &groups},
		{TimeSlotsFile, &timeSlots},
	}
	for _, file := range files {
		if err := unmarshalCsvFile(filepath.Join(directory, file.name), delimiter, file.rows); err != nil {
			return nil, err
		}
	}

	err := unmarshalCsvFile(filepath.Join(directory, TeacherConstraintsFile), delimiter, &constraints)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	rawInput := RawInput{
		Classrooms: lo.Map(classrooms, func(row *classroomRow, _ int) RawClassroom {
			return RawClassroom{Number: row.Number, Capacity: row.SeatingCapacity}
		}),
		Courses: lo.Map(courses, func(row *courseRow, _ int) RawCourse {
			return RawCourse{
				Number:       row.Number,
				Name:         row.Name,
				Capacity:     row.MaxNumberOfStudents,
				Type:         row.CourseType,
				HoursPerWeek: row.HoursPerWeek,
			}
		}),
		TimeSlots: lo.Map(timeSlots, func(row *timeSlotRow, _ int) RawTimeSlot {
			return RawTimeSlot{Id: row.Id, Day: row.Day, Time: row.Time}
		}),
	}

	for _, row := range teachers {
		numbers, err := ParseNumberList(row.Courses)
		if err != nil {
			return nil, fmt.Errorf("%v: teacher %v: %w", TeachersFile, row.Id, err)
		}
		rawInput.Teachers = append(rawInput.Teachers, RawTeacher{
			Id:              row.Id,
			Name:            row.Name,
			Courses:         numbers,
			MaxHoursPerWeek: row.MaxHoursPerWeek,
		})
	}

	for _, row := range groups {
		numbers, err := ParseNumberList(row.Courses)
		if err != nil {
			return nil, fmt.Errorf("%v: group %v: %w", GroupsFile, row.Id, err)
		}
		rawInput.Groups = append(rawInput.Groups, RawGroup{
			Id:      row.Id,
			Name:    row.Name,
			Size:    row.NumStudents,
			Courses: numbers,
		})
	}

	for _, row := range constraints {
		numbers, err := ParseNumberList(row.Courses)
		if err != nil {
			return nil, fmt.Errorf("%v: teacher %v: %w", TeacherConstraintsFile, row.Id, err)
		}
		rawInput.Qualifications = append(rawInput.Qualifications, RawQualification{
			Teacher:         row.Id,
			Courses:         numbers,
			MaxHoursPerWeek: row.MaxHoursPerWeek,
		})
	}

	return ProcessRawInput(rawInput)
}

// unmarshalCsvFile decodes with a reader owned by the call, leaving gocsv's global reader factory untouched
func unmarshalCsvFile(path string, delimiter rune, rows any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %v: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.UnmarshalCSV(newCsvReader(file, delimiter), rows); err != nil {
		return fmt.Errorf("cannot parse %v: %w", path, err)
	}
	return nil
}

// ParseNumberList parses comma separated course numbers such as "1,2, 14"
func ParseNumberList(list string) ([]uint64, error) {
	list = strings.Trim(strings.TrimSpace(list), `"`)
	if list == "" {
		return []uint64{}, nil
	}

	numbers := make([]uint64, 0)
	for _, field := range strings.Split(list, ",") {
		number, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid course number %q", field)
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// FormatNumberList is the inverse of ParseNumberList
func FormatNumberList(numbers []uint64) string {
	return strings.Join(lo.Map(numbers, func(number uint64, _ int) string { return strconv.FormatUint(number, 10) }), ",")
}

func newCsvReader(in io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(in)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	return reader
}
