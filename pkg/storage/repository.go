package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const DriverName = "pgx"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS classrooms (
		number TEXT PRIMARY KEY,
		seating_capacity INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		courses TEXT NOT NULL,
		max_hours_per_week INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		number BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		max_students INTEGER NOT NULL,
		course_type TEXT NOT NULL,
		hours_per_week INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS student_groups (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		num_students INTEGER NOT NULL,
		courses TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id TEXT PRIMARY KEY,
		time TEXT NOT NULL,
		day TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS timetable_runs (
		id UUID PRIMARY KEY,
		fitness DOUBLE PRECISION NOT NULL,
		conflicts INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS timetable_sessions (
		run_id UUID NOT NULL REFERENCES timetable_runs (id) ON DELETE CASCADE,
		session_id BIGINT NOT NULL,
		course_number BIGINT NOT NULL,
		group_id BIGINT NOT NULL,
		teacher_id BIGINT NOT NULL,
		classroom TEXT NOT NULL,
		time_slot TEXT NOT NULL,
		PRIMARY KEY (run_id, session_id)
	)`,
}

// Repository persists the domain catalog and the timetables produced by runs
type Repository struct {
	dbpool             *sql.DB
	queryTimeout       time.Duration
	transactionTimeout time.Duration
}

func NewRepository(dbpool *sql.DB, queryTimeout, transactionTimeout time.Duration) *Repository {
	return &Repository{
		dbpool:             dbpool,
		queryTimeout:       queryTimeout,
		transactionTimeout: transactionTimeout,
	}
}

// Open creates a connection pool and checks that the database is reachable
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dbpool, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}

	// sql.Open does not connect, so ping explicitly
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (r *Repository) CreateSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, statement := range schema {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("cannot create schema: %w", err)
		}
	}
	return tx.Commit()
}

// SaveData replaces the stored catalog with the given one
func (r *Repository) SaveData(ctx context.Context, data *model.Data) error {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"classrooms", "teachers", "courses", "student_groups", "time_slots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, classroom := range data.Classrooms {
		query := `INSERT INTO classrooms (number, seating_capacity) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, query, classroom.Number, classroom.Capacity); err != nil {
			return err
		}
	}

	for _, teacher := range data.Teachers {
		query := `INSERT INTO teachers (id, name, courses, max_hours_per_week) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, query, teacher.Id, teacher.Name, model.FormatNumberList(teacher.Courses), teacher.MaxHoursPerWeek); err != nil {
			return err
		}
	}

	for _, course := range data.Courses {
		query := `INSERT INTO courses (number, name, max_students, course_type, hours_per_week) VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, query, course.Number, course.Name, course.Capacity, string(course.Type), course.HoursPerWeek); err != nil {
			return err
		}
	}

	for _, group := range data.Groups {
		query := `INSERT INTO student_groups (id, name, num_students, courses) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, query, group.Id, group.Name, group.Size, groupCourses(group)); err != nil {
			return err
		}
	}

	for _, slot := range data.TimeSlots {
		query := `INSERT INTO time_slots (id, time, day) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, slot.Id, slot.Time, slot.Day); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadData reads the stored catalog and validates it like any other input
func (r *Repository) LoadData(ctx context.Context) (*model.Data, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var rawInput model.RawInput

	err := r.queryRows(ctx, `SELECT number, seating_capacity FROM classrooms ORDER BY number`, func(rows *sql.Rows) error {
		var classroom model.RawClassroom
		if err := rows.Scan(&classroom.Number, &classroom.Capacity); err != nil {
			return err
		}
		rawInput.Classrooms = append(rawInput.Classrooms, classroom)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.queryRows(ctx, `SELECT id, name, courses, max_hours_per_week FROM teachers ORDER BY id`, func(rows *sql.Rows) error {
		var teacher model.RawTeacher
		var courses string
		if err := rows.Scan(&teacher.Id, &teacher.Name, &courses, &teacher.MaxHoursPerWeek); err != nil {
			return err
		}
		numbers, err := model.ParseNumberList(courses)
		if err != nil {
			return fmt.Errorf("teacher %v: %w", teacher.Id, err)
		}
		teacher.Courses = numbers
		rawInput.Teachers = append(rawInput.Teachers, teacher)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.queryRows(ctx, `SELECT number, name, max_students, course_type, hours_per_week FROM courses ORDER BY number`, func(rows *sql.Rows) error {
		var course model.RawCourse
		if err := rows.Scan(&course.Number, &course.Name, &course.Capacity, &course.Type, &course.HoursPerWeek); err != nil {
			return err
		}
		rawInput.Courses = append(rawInput.Courses, course)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.queryRows(ctx, `SELECT id, name, num_students, courses FROM student_groups ORDER BY id`, func(rows *sql.Rows) error {
		var group model.RawGroup
		var courses string
		if err := rows.Scan(&group.Id, &group.Name, &group.Size, &courses); err != nil {
			return err
		}
		numbers, err := model.ParseNumberList(courses)
		if err != nil {
			return fmt.Errorf("student group %v: %w", group.Id, err)
		}
		group.Courses = numbers
		rawInput.Groups = append(rawInput.Groups, group)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.queryRows(ctx, `SELECT id, time, day FROM time_slots ORDER BY id`, func(rows *sql.Rows) error {
		var slot model.RawTimeSlot
		if err := rows.Scan(&slot.Id, &slot.Time, &slot.Day); err != nil {
			return err
		}
		rawInput.TimeSlots = append(rawInput.TimeSlots, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return model.ProcessRawInput(rawInput)
}

// SaveTimetable stores the sessions of a run's best timetable under the run identifier
func (r *Repository) SaveTimetable(ctx context.Context, runID uuid.UUID, fitness float64, conflicts int, sessions []*model.StudySession) error {
	if unresolved, ok := lo.Find(sessions, func(session *model.StudySession) bool { return !session.Resolved() }); ok {
		return fmt.Errorf("cannot save session %v: teacher, classroom and time slot are required", unresolved.Id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO timetable_runs (id, fitness, conflicts) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, runID, fitness, conflicts); err != nil {
		return err
	}

	for _, session := range sessions {
		query := `
			INSERT INTO timetable_sessions (run_id, session_id, course_number, group_id, teacher_id, classroom, time_slot)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query, runID, session.Id, session.Course.Number, session.Group.Id, session.Teacher.Id, session.Classroom.Number, session.TimeSlot.Id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadTimetable rebuilds the sessions of a stored run against the given catalog
func (r *Repository) LoadTimetable(ctx context.Context, runID uuid.UUID, data *model.Data) ([]*model.StudySession, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	sessions := make([]*model.StudySession, 0)
	query := `
		SELECT session_id, course_number, group_id, teacher_id, classroom, time_slot
		FROM timetable_sessions
		WHERE run_id = $1
		ORDER BY session_id
	`
	err := r.queryRows(ctx, query, func(rows *sql.Rows) error {
		var row struct {
			sessionID    uint64
			courseNumber uint64
			groupID      uint64
			teacherID    uint64
			classroom    string
			timeSlot     string
		}
		if err := rows.Scan(&row.sessionID, &row.courseNumber, &row.groupID, &row.teacherID, &row.classroom, &row.timeSlot); err != nil {
			return err
		}

		session, err := resolveSession(data, row.sessionID, row.courseNumber, row.groupID, row.teacherID, row.classroom, row.timeSlot)
		if err != nil {
			return err
		}
		sessions = append(sessions, session)
		return nil
	}, runID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *Repository) queryRows(ctx context.Context, query string, scan func(rows *sql.Rows) error, args ...any) error {
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func resolveSession(data *model.Data, id, courseNumber, groupID, teacherID uint64, classroomNumber, timeSlotID string) (*model.StudySession, error) {
	course, ok := data.Course(courseNumber)
	if !ok {
		return nil, fmt.Errorf("%w: unknown course %v", model.ErrInvalidEntity, courseNumber)
	}
	group, ok := data.Group(groupID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown student group %v", model.ErrInvalidEntity, groupID)
	}
	teacher, ok := data.Teacher(teacherID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown teacher %v", model.ErrInvalidEntity, teacherID)
	}
	classroom, ok := data.Classroom(classroomNumber)
	if !ok {
		return nil, fmt.Errorf("%w: unknown classroom %q", model.ErrInvalidEntity, classroomNumber)
	}
	slot, ok := data.TimeSlot(timeSlotID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown time slot %q", model.ErrInvalidEntity, timeSlotID)
	}

	session := model.NewStudySession(id, course, group)
	session.Teacher, session.Classroom, session.TimeSlot = teacher, classroom, slot
	return session, nil
}

func groupCourses(group *model.StudentGroup) string {
	return model.FormatNumberList(lo.Map(group.Courses, func(course *model.Course, _ int) uint64 { return course.Number }))
}
