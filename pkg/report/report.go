package report

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/limaJavier/evotimetabling/pkg/genetic"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
)

var ErrUnresolvedSession = errors.New("unresolved study session")

const separatorWidth = 80

// Row is a fully resolved session flattened for export
type Row struct {
	Session        uint64 `csv:"session" json:"session"`
	Group          string `csv:"group" json:"group"`
	GroupSize      uint64 `csv:"group_size" json:"groupSize"`
	CourseNumber   uint64 `csv:"course_number" json:"courseNumber"`
	Course         string `csv:"course" json:"course"`
	CourseType     string `csv:"course_type" json:"courseType"`
	Classroom      string `csv:"classroom" json:"classroom"`
	ClassroomSeats uint64 `csv:"classroom_capacity" json:"classroomCapacity"`
	TeacherId      uint64 `csv:"teacher_id" json:"teacherId"`
	Teacher        string `csv:"teacher" json:"teacher"`
	TimeSlot       string `csv:"time_slot" json:"timeSlot"`
	Day            string `csv:"day" json:"day"`
	Time           string `csv:"time" json:"time"`

	startMinutes int `csv:"-"`
	dayOrder     int `csv:"-"`
}

type Summary struct {
	Fitness   float64 `json:"fitness"`
	Conflicts int     `json:"conflicts"`
	Rows      []Row   `json:"sessions"`
}

// Rows flattens the timetable ordered by group name, weekday and start time
func Rows(timetable *genetic.Timetable) ([]Row, error) {
	return SessionRows(timetable.Sessions())
}

func SessionRows(sessions []*model.StudySession) ([]Row, error) {
	rows := make([]Row, 0, len(sessions))
	for _, session := range sessions {
		if !session.Resolved() {
			return nil, fmt.Errorf("%w: session %v of %q for group %q", ErrUnresolvedSession, session.Id, session.Course.Name, session.Group.Name)
		}
		rows = append(rows, Row{
			Session:        session.Id,
			Group:          session.Group.Name,
			GroupSize:      session.Group.Size,
			CourseNumber:   session.Course.Number,
			Course:         session.Course.Name,
			CourseType:     string(session.Course.Type),
			Classroom:      session.Classroom.Number,
			ClassroomSeats: session.Classroom.Capacity,
			TeacherId:      session.Teacher.Id,
			Teacher:        session.Teacher.Name,
			TimeSlot:       session.TimeSlot.Id,
			Day:            session.TimeSlot.Day,
			Time:           session.TimeSlot.Time,
			startMinutes:   session.TimeSlot.StartMinutes(),
			dayOrder:       slices.Index(model.Days, session.TimeSlot.Day),
		})
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(
			strings.Compare(a.Group, b.Group),
			cmp.Compare(a.dayOrder, b.dayOrder),
			cmp.Compare(a.startMinutes, b.startMinutes),
		)
	})
	return rows, nil
}

func NewSummary(timetable *genetic.Timetable) (Summary, error) {
	rows, err := Rows(timetable)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Fitness: timetable.Fitness(), Conflicts: timetable.Conflicts(), Rows: rows}, nil
}

// WriteText renders the timetable grouped by student group and day, followed by its fitness and conflict count
func WriteText(writer io.Writer, timetable *genetic.Timetable) error {
	rows, err := Rows(timetable)
	if err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("Timetable:\n")
	builder.WriteString("Class # | Group | Course | Classroom | Teacher | Day | Time\n")
	builder.WriteString(strings.Repeat("-", separatorWidth) + "\n")

	currentGroup, currentDay := "", ""
	for index, row := range rows {
		if row.Group != currentGroup {
			builder.WriteString("\n")
			currentGroup, currentDay = row.Group, ""
		}
		if row.Day != currentDay {
			fmt.Fprintf(&builder, "\n%v\n", row.Day)
			currentDay = row.Day
		}
		fmt.Fprintf(&builder, "%v | %v | %v (%v) | %v (%v) | %v (%v) | %v | %v\n",
			index+1, row.Group, row.Course, row.CourseNumber, row.Classroom, row.ClassroomSeats, row.Teacher, row.TeacherId, row.Day, row.Time)
	}

	builder.WriteString(strings.Repeat("-", separatorWidth) + "\n")
	fmt.Fprintf(&builder, "Fitness: %v\n", timetable.Fitness())
	fmt.Fprintf(&builder, "Number of conflicts: %v\n", timetable.Conflicts())

	_, err = io.WriteString(writer, builder.String())
	return err
}

// WriteTable renders the timetable as an aligned console table
func WriteTable(writer io.Writer, timetable *genetic.Timetable) error {
	rows, err := Rows(timetable)
	if err != nil {
		return err
	}

	table := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "#\tGroup\tCourse (number)\tClassroom (capacity)\tTeacher (id)\tDay\tTime")
	for index, row := range rows {
		fmt.Fprintf(table, "%v\t%v\t%v (%v)\t%v (%v)\t%v (%v)\t%v\t%v\n",
			index+1, row.Group, row.Course, row.CourseNumber, row.Classroom, row.ClassroomSeats, row.Teacher, row.TeacherId, row.Day, row.Time)
	}
	return table.Flush()
}

// WritePopulation renders one line per individual of a generation
func WritePopulation(writer io.Writer, generation int, population *genetic.Population) error {
	table := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(table, "Generation %v\t\t\t\t\n", generation)
	fmt.Fprintln(table, "Timetable\tSessions\tFitness\tConflicts\t")
	for index, timetable := range population.Timetables() {
		fmt.Fprintf(table, "%v\t%v\t%.4f\t%v\t\n", index, timetable.Len(), timetable.Fitness(), timetable.Conflicts())
	}
	return table.Flush()
}

// WriteData summarizes the loaded catalog
func WriteData(writer io.Writer, data *model.Data) error {
	table := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(table, "Courses\t\t\t\t")
	fmt.Fprintln(table, "Number\tName\tMax students\tType\tHours per week")
	for _, course := range data.Courses {
		fmt.Fprintf(table, "%v\t%v\t%v\t%v\t%v\n", course.Number, course.Name, course.Capacity, course.Type, course.HoursPerWeek)
	}

	fmt.Fprintln(table, "\nClassrooms\t\t\t\t")
	fmt.Fprintln(table, "Number\tCapacity\t\t\t")
	for _, classroom := range data.Classrooms {
		fmt.Fprintf(table, "%v\t%v\t\t\t\n", classroom.Number, classroom.Capacity)
	}

	fmt.Fprintln(table, "\nTeachers\t\t\t\t")
	fmt.Fprintln(table, "Id\tName\tCourses\tMax hours\t")
	for _, teacher := range data.Teachers {
		fmt.Fprintf(table, "%v\t%v\t[%v]\t%v\t\n", teacher.Id, teacher.Name, model.FormatNumberList(teacher.Courses), teacher.MaxHoursPerWeek)
	}

	fmt.Fprintln(table, "\nTime slots\t\t\t\t")
	fmt.Fprintln(table, "Id\tDay\tTime\t\t")
	for _, slot := range data.TimeSlots {
		fmt.Fprintf(table, "%v\t%v\t%v\t\t\n", slot.Id, slot.Day, slot.Time)
	}

	fmt.Fprintln(table, "\nGroups\t\t\t\t")
	fmt.Fprintln(table, "Id\tName\tStudents\tCourses\t")
	for _, group := range data.Groups {
		numbers := lo.Map(group.Courses, func(course *model.Course, _ int) uint64 { return course.Number })
		fmt.Fprintf(table, "%v\t%v\t%v\t[%v]\t\n", group.Id, group.Name, group.Size, model.FormatNumberList(numbers))
	}
	return table.Flush()
}

func WriteCSV(writer io.Writer, timetable *genetic.Timetable) error {
	rows, err := Rows(timetable)
	if err != nil {
		return err
	}
	return gocsv.Marshal(&rows, writer)
}

func WriteJSON(writer io.Writer, timetable *genetic.Timetable) error {
	summary, err := NewSummary(timetable)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

type Format string

const (
	Text  Format = "text"
	Table Format = "table"
	CSV   Format = "csv"
	JSON  Format = "json"
)

// Write dispatches to the writer of the given format
func Write(writer io.Writer, format Format, timetable *genetic.Timetable) error {
	switch format {
	case Text:
		return WriteText(writer, timetable)
	case Table:
		return WriteTable(writer, timetable)
	case CSV:
		return WriteCSV(writer, timetable)
	case JSON:
		return WriteJSON(writer, timetable)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
