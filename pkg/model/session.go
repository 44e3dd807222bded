package model

import "fmt"

// StudySession is a single teaching session of a course for a student group. Teacher, Classroom and TimeSlot stay nil until the session is assigned
type StudySession struct {
	Id        uint64
	Course    *Course
	Group     *StudentGroup
	Teacher   *Teacher
	Classroom *Classroom
	TimeSlot  *TimeSlot
}

func NewStudySession(id uint64, course *Course, group *StudentGroup) *StudySession {
	return &StudySession{
		Id:     id,
		Course: course,
		Group:  group,
	}
}

// Resolved reports whether teacher, classroom and time slot are all assigned
func (session *StudySession) Resolved() bool {
	return session.Teacher != nil && session.Classroom != nil && session.TimeSlot != nil
}

// Clone returns an independently owned copy. Domain entities are shared since they are read-only during a run
func (session *StudySession) Clone() *StudySession {
	clone := *session
	return &clone
}

func (session *StudySession) String() string {
	return fmt.Sprintf("[%v, Group: %v, Classroom: %v, Teacher: %v, Time Slot: %v]",
		session.Course.Name, session.Group.Name, session.Classroom, session.Teacher, session.TimeSlot)
}
