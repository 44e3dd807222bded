package genetic

import (
	"math/rand/v2"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Timetable is a chromosome: an ordered sequence of fully assigned sessions and its cached score
type Timetable struct {
	data            *model.Data
	fitnessFunction FitnessFunction
	sessions        []*model.StudySession

	fitness   float64
	conflicts int
	dirty     bool
}

func NewTimetable(data *model.Data, fitnessFunction FitnessFunction) *Timetable {
	return &Timetable{
		data:            data,
		fitnessFunction: fitnessFunction,
		sessions:        make([]*model.StudySession, 0, data.ExpectedSessions()),
		dirty:           true,
	}
}

// Append adds independent copies of the sessions
func (timetable *Timetable) Append(sessions ...*model.StudySession) {
	for _, session := range sessions {
		timetable.sessions = append(timetable.sessions, session.Clone())
	}
	timetable.Invalidate()
}

// Initialize creates the required sessions of every group with a random qualified teacher, classroom and time slot.
// Sessions of courses nobody can teach are skipped
func (timetable *Timetable) Initialize(rng *rand.Rand, logger *zap.Logger) *Timetable {
	data := timetable.data
	var id uint64
	for _, group := range data.Groups {
		for _, course := range group.Courses {
			for range data.RequiredSessions(course) {
				teachers := data.QualifiedTeachers(course.Number)
				if len(teachers) == 0 {
					logger.Warn("no qualified teacher, session skipped",
						zap.String("course", course.Name),
						zap.Uint64("courseNumber", course.Number),
						zap.String("group", group.Name),
					)
					continue
				}

				session := model.NewStudySession(id, course, group)
				session.Teacher = teachers[rng.IntN(len(teachers))]
				session.Classroom = data.Classrooms[rng.IntN(len(data.Classrooms))]
				session.TimeSlot = data.TimeSlots[rng.IntN(len(data.TimeSlots))]
				timetable.sessions = append(timetable.sessions, session)
				id++
			}
		}
	}
	timetable.Invalidate()
	return timetable
}

// Fitness returns the cached score, recomputing it if the chromosome changed since the last evaluation
func (timetable *Timetable) Fitness() float64 {
	if timetable.dirty {
		result := evaluate(timetable.sessions, timetable.fitnessFunction)
		timetable.fitness = result.fitness
		timetable.conflicts = result.conflicts
		timetable.dirty = false
	}
	return timetable.fitness
}

// Conflicts returns the conflict count of the current evaluation
func (timetable *Timetable) Conflicts() int {
	timetable.Fitness()
	return timetable.conflicts
}

func (timetable *Timetable) Invalidate() {
	timetable.dirty = true
}

func (timetable *Timetable) Dirty() bool {
	return timetable.dirty
}

func (timetable *Timetable) Clone() *Timetable {
	clone := *timetable
	clone.sessions = lo.Map(timetable.sessions, func(session *model.StudySession, _ int) *model.StudySession {
		return session.Clone()
	})
	return &clone
}

// Sessions returns copies of the sessions in chromosome order
func (timetable *Timetable) Sessions() []*model.StudySession {
	return lo.Map(timetable.sessions, func(session *model.StudySession, _ int) *model.StudySession {
		return session.Clone()
	})
}

func (timetable *Timetable) Len() int {
	return len(timetable.sessions)
}

func (timetable *Timetable) FitnessFunction() FitnessFunction {
	return timetable.fitnessFunction
}
