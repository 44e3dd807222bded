package genetic

import (
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// ReassignClassrooms moves the sessions of every time slot to classrooms chosen by a maximum bipartite matching,
// where a session may use any classroom that seats its group. Sessions left out of the matching keep their classroom.
// It returns how many sessions could not be seated without a room conflict
func ReassignClassrooms(timetable *Timetable) (int, error) {
	bySlot := lo.GroupBy(
		lo.Filter(timetable.sessions, func(session *model.StudySession, _ int) bool { return session.Resolved() }),
		func(session *model.StudySession) string { return session.TimeSlot.Id },
	)
	classrooms := timetable.data.Classrooms

	unmatched := 0
	for _, slot := range timetable.data.TimeSlots {
		sessions := bySlot[slot.Id]
		if len(sessions) == 0 {
			continue
		}

		assignments, err := matchClassrooms(sessions, classrooms)
		if err != nil {
			return 0, err
		}
		for session, classroom := range assignments {
			session.Classroom = classroom
		}
		unmatched += len(sessions) - len(assignments)
	}

	timetable.Invalidate()
	return unmatched, nil
}

func matchClassrooms(sessions []*model.StudySession, classrooms []*model.Classroom) (map[*model.StudySession]*model.Classroom, error) {
	// Build neighbors predicate based on seating capacity
	neighbors := func(sessionAny any, classroomAny any) (bool, error) {
		session := sessionAny.(*model.StudySession)
		classroom := classroomAny.(*model.Classroom)

		return session.Group.Size <= classroom.Capacity, nil
	}

	sessionsAny := lo.Map(sessions, func(session *model.StudySession, _ int) any { return session })
	classroomsAny := lo.Map(classrooms, func(classroom *model.Classroom, _ int) any { return classroom })

	graph, err := bipartitegraph.NewBipartiteGraph(sessionsAny, classroomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	assignments := make(map[*model.StudySession]*model.Classroom)
	for _, edge := range graph.LargestMatching() {
		sessionIndex, classroomIndex := edge.Node1, edge.Node2-len(sessions)
		assignments[sessions[sessionIndex]] = classrooms[classroomIndex]
	}
	return assignments, nil
}
