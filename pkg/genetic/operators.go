package genetic

import (
	"github.com/limaJavier/evotimetabling/pkg/model"
	"github.com/samber/lo"
)

const (
	breedBias          = 0.5 // Probability of inheriting a session from the first parent
	teacherResample    = 0.5 // Probability that an aggressive mutation changes the teacher rather than the classroom
	timeSlotResample   = 0.3
	mutationOperations = 3
)

//** Crossover

func (engine *Engine) crossoverPopulation(population *Population) *Population {
	timetables := make([]*Timetable, 0, population.Len())
	for index := range population.Len() {
		if index < engine.config.EliteCount {
			timetables = append(timetables, population.At(index).Clone())
			continue
		}

		if engine.rng.Float64() < engine.config.CrossoverRate {
			first := engine.tournament(population).At(0)
			second := engine.tournament(population).At(1)
			timetables = append(timetables, engine.Breed(first, second))
		} else {
			timetables = append(timetables, population.At(index).Clone())
		}
	}
	return newPopulationOf(timetables)
}

// tournament draws TournamentSize individuals with replacement and sorts them by fitness
func (engine *Engine) tournament(population *Population) *Population {
	contestants := make([]*Timetable, 0, engine.config.TournamentSize)
	for range engine.config.TournamentSize {
		contestants = append(contestants, population.At(engine.rng.IntN(population.Len())))
	}
	return newPopulationOf(contestants).SortByFitness()
}

// Breed combines two parents by uniform crossover over their common length. The tail of the longer parent is kept
func (engine *Engine) Breed(first, second *Timetable) *Timetable {
	child := NewTimetable(engine.data, first.fitnessFunction)
	common := min(first.Len(), second.Len())

	for index := range common {
		if engine.rng.Float64() < breedBias {
			child.sessions = append(child.sessions, first.sessions[index].Clone())
		} else {
			child.sessions = append(child.sessions, second.sessions[index].Clone())
		}
	}
	for _, session := range first.sessions[common:] {
		child.sessions = append(child.sessions, session.Clone())
	}
	for _, session := range second.sessions[common:] {
		child.sessions = append(child.sessions, session.Clone())
	}

	child.Invalidate()
	return child
}

//** Mutation

// mutatePopulation mutates every non-elite individual in place. Individuals are owned by the population produced by crossover
func (engine *Engine) mutatePopulation(population *Population) *Population {
	for index := engine.config.EliteCount; index < population.Len(); index++ {
		engine.Mutate(population.At(index))
	}
	return population
}

// Mutate applies, with probability MutationRate, one of swap, inversion or scramble
func (engine *Engine) Mutate(timetable *Timetable) {
	if timetable.Len() == 0 || engine.rng.Float64() >= engine.config.MutationRate {
		return
	}

	switch engine.rng.IntN(mutationOperations) {
	case 0:
		engine.swap(timetable)
	case 1:
		engine.inversion(timetable)
	default:
		engine.scramble(timetable)
	}
}

// swap exchanges the time slots of two random sessions
func (engine *Engine) swap(timetable *Timetable) {
	sessions := timetable.sessions
	first, second := engine.rng.IntN(len(sessions)), engine.rng.IntN(len(sessions))
	sessions[first].TimeSlot, sessions[second].TimeSlot = sessions[second].TimeSlot, sessions[first].TimeSlot
	timetable.Invalidate()
}

// inversion reverses the chromosome positions held by a random run of one group's sessions
func (engine *Engine) inversion(timetable *Timetable) {
	if len(engine.data.Groups) == 0 {
		return
	}
	group := engine.data.Groups[engine.rng.IntN(len(engine.data.Groups))]

	positions := make([]int, 0)
	for index, session := range timetable.sessions {
		if session.Group.Id == group.Id {
			positions = append(positions, index)
		}
	}
	count := len(positions)
	if count <= 2 {
		return
	}

	start := int(engine.rng.Float64() * float64(count-1))
	end := int(engine.rng.Float64()*float64(count-start)) + start
	for low, high := start, end; low < high; low, high = low+1, high-1 {
		sessions := timetable.sessions
		sessions[positions[low]], sessions[positions[high]] = sessions[positions[high]], sessions[positions[low]]
	}
	timetable.Invalidate()
}

// scramble shuffles the time slots of a random set of sessions
func (engine *Engine) scramble(timetable *Timetable) {
	sessions := timetable.sessions
	count := int(engine.rng.Float64()*float64(len(sessions))/2) + 1

	indices := make([]int, 0, count)
	for range count {
		indices = append(indices, engine.rng.IntN(len(sessions)))
	}
	engine.scrambleSlots(timetable, indices)
}

// scrambleSlots shuffles the time slots held at the given positions and writes them back in position order.
// A repeated position keeps the last slot written to it
func (engine *Engine) scrambleSlots(timetable *Timetable, indices []int) {
	sessions := timetable.sessions
	slots := lo.Map(indices, func(index int, _ int) *model.TimeSlot { return sessions[index].TimeSlot })
	engine.rng.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	for i, index := range indices {
		sessions[index].TimeSlot = slots[i]
	}
	timetable.Invalidate()
}

//** Predation

// predation replaces the weakest individuals with aggressively mutated clones of the strongest ones
func (engine *Engine) predation(population *Population) {
	engine.sort(population)
	size := population.Len()
	count := int(float64(size) * engine.config.PredationRate)
	if count == 0 {
		return
	}

	clones := lo.Map(population.timetables[:count], func(timetable *Timetable, _ int) *Timetable { return timetable.Clone() })
	population.timetables = population.timetables[:size-count]
	for _, clone := range clones {
		engine.aggressiveMutate(clone)
		population.timetables = append(population.timetables, clone)
	}
}

// aggressiveMutate changes the teacher or the classroom of many sessions, and sometimes their time slot
func (engine *Engine) aggressiveMutate(timetable *Timetable) {
	rate := min(1, 2*engine.config.MutationRate)
	data := engine.data

	for _, session := range timetable.sessions {
		if engine.rng.Float64() >= rate {
			continue
		}

		if engine.rng.Float64() < teacherResample {
			if teachers := data.QualifiedTeachers(session.Course.Number); len(teachers) > 0 {
				session.Teacher = teachers[engine.rng.IntN(len(teachers))]
			}
		} else {
			session.Classroom = data.Classrooms[engine.rng.IntN(len(data.Classrooms))]
		}

		if engine.rng.Float64() < timeSlotResample {
			session.TimeSlot = data.TimeSlots[engine.rng.IntN(len(data.TimeSlots))]
		}
	}
	timetable.Invalidate()
}

//** Rain

// rain replaces the worst RainRate share of the population with fresh random timetables
func (engine *Engine) rain(population *Population) {
	count := int(float64(population.Len()) * engine.config.RainRate)
	if count == 0 {
		return
	}

	if engine.config.CascadingRain {
		for range count {
			engine.sort(population)
			population.timetables[population.Len()-1] = engine.randomTimetable()
		}
		engine.sort(population)
		return
	}

	engine.sort(population)
	for index := population.Len() - count; index < population.Len(); index++ {
		population.timetables[index] = engine.randomTimetable()
	}
}

//** Stabilization

// stabilize truncates or refills the population to the given size
func (engine *Engine) stabilize(population *Population, size int) {
	if population.Len() > size {
		population.timetables = population.timetables[:size]
	}
	for population.Len() < size {
		population.timetables = append(population.timetables, engine.randomTimetable())
	}
}

func (engine *Engine) randomTimetable() *Timetable {
	return NewTimetable(engine.data, engine.config.FitnessFunction).Initialize(engine.rng, engine.logger)
}
