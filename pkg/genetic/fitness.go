package genetic

import (
	"slices"

	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
)

// Two consecutive sessions of the same actor whose starts differ by more than this leave an idle window
const maxContiguousMinutes = 95

const (
	gapWeight     = 0.01
	balanceWeight = 0.1
)

type evaluation struct {
	fitness   float64
	conflicts int
}

func evaluate(sessions []*model.StudySession, function FitnessFunction) evaluation {
	switch function {
	case FitnessConflicts:
		conflicts := countConflicts(sessions)
		return evaluation{fitness: 1 / float64(1+conflicts), conflicts: conflicts}
	case FitnessGaps:
		gaps := countGaps(sessions)
		return evaluation{fitness: 1 / float64(1+gaps), conflicts: countConflicts(sessions)}
	default:
		conflicts := countConflicts(sessions)
		gaps := countGaps(sessions)
		fitness := 1/float64(1+conflicts+gaps) - gapWeight*float64(gaps) - balanceWeight*balancePenalty(sessions)
		return evaluation{fitness: fitness, conflicts: conflicts + gaps}
	}
}

type slotKey struct {
	slot  string
	actor uint64
}

type roomKey struct {
	slot      string
	classroom string
}

// countConflicts adds one for every repeated (group, slot), (teacher, slot) and (classroom, slot) pair, plus one per over-capacity session
func countConflicts(sessions []*model.StudySession) int {
	groups := make(map[slotKey]bool)
	teachers := make(map[slotKey]bool)
	classrooms := make(map[roomKey]bool)

	conflicts := 0
	for _, session := range sessions {
		if !session.Resolved() {
			continue
		}
		slot := session.TimeSlot.Id

		groupKey := slotKey{slot: slot, actor: session.Group.Id}
		if groups[groupKey] {
			conflicts++
		}
		groups[groupKey] = true

		teacherKey := slotKey{slot: slot, actor: session.Teacher.Id}
		if teachers[teacherKey] {
			conflicts++
		}
		teachers[teacherKey] = true

		classroomKey := roomKey{slot: slot, classroom: session.Classroom.Number}
		if classrooms[classroomKey] {
			conflicts++
		}
		classrooms[classroomKey] = true

		if session.Group.Size > session.Classroom.Capacity {
			conflicts++
		}
	}
	return conflicts
}

type dayKey struct {
	day     string
	teacher bool
	actor   uint64
}

// countGaps adds one for every pair of consecutive sessions of a teacher or group, on the same day, that are too far apart
func countGaps(sessions []*model.StudySession) int {
	starts := make(map[dayKey][]int)
	for _, session := range sessions {
		if !session.Resolved() {
			continue
		}
		day, minutes := session.TimeSlot.Day, session.TimeSlot.StartMinutes()

		teacherKey := dayKey{day: day, teacher: true, actor: session.Teacher.Id}
		starts[teacherKey] = append(starts[teacherKey], minutes)

		groupKey := dayKey{day: day, actor: session.Group.Id}
		starts[groupKey] = append(starts[groupKey], minutes)
	}

	gaps := 0
	for _, minutes := range starts {
		slices.Sort(minutes)
		for i := 1; i < len(minutes); i++ {
			if minutes[i]-minutes[i-1] > maxContiguousMinutes {
				gaps++
			}
		}
	}
	return gaps
}

// balancePenalty measures how unevenly sessions spread over the working week, in [0, 1]
func balancePenalty(sessions []*model.StudySession) float64 {
	daily := lo.SliceToMap(model.Weekdays, func(day string) (string, int) { return day, 0 })
	for _, session := range sessions {
		if session.TimeSlot == nil {
			continue
		}
		if _, ok := daily[session.TimeSlot.Day]; ok {
			daily[session.TimeSlot.Day]++
		}
	}

	counts := lo.Values(daily)
	maxDaily, minDaily := lo.Max(counts), lo.Min(counts)
	if maxDaily == 0 {
		return 0
	}
	return float64(maxDaily-minDaily) / float64(maxDaily)
}
