// Package queue builds the initial question order of an interview session.
package queue

import (
	"ai-interview-be/internal/entity"
)

// Seed orders core questions by difficulty tier (easy, medium, hard) and
// places one personalized question after each core question while any
// remain. Personalized questions keep their input order and are not sorted
// by their own difficulty, so they spread over the earliest tiers instead of
// clustering. Leftover personalized questions are drained after the core
// queue. Core questions with an unknown difficulty come after the hard tier,
// and duplicate ids keep their first occurrence.
func Seed(core, personalized []entity.Question) []entity.Question {
	coreByTier := partition(core)

	out := make([]entity.Question, 0, len(core)+len(personalized))
	seen := make(map[string]bool, len(core)+len(personalized))
	push := func(q entity.Question) bool {
		if seen[q.Id] {
			return false
		}
		seen[q.Id] = true
		out = append(out, q)
		return true
	}

	next := 0
	pushPersonalized := func() {
		for next < len(personalized) {
			p := personalized[next]
			next++
			if push(p) {
				return
			}
		}
	}

	for _, tier := range tierOrder() {
		for _, c := range coreByTier[tier] {
			if push(c) {
				pushPersonalized()
			}
		}
	}
	for next < len(personalized) {
		pushPersonalized()
	}

	return out
}

// Ids flattens a seeded queue.
func Ids(questions []entity.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.Id
	}
	return ids
}

const unknownTier entity.Difficulty = ""

func tierOrder() []entity.Difficulty {
	return append(append([]entity.Difficulty{}, entity.DifficultyTiers...), unknownTier)
}

func partition(questions []entity.Question) map[entity.Difficulty][]entity.Question {
	byTier := make(map[entity.Difficulty][]entity.Question)
	for _, q := range questions {
		tier := q.Difficulty
		if !tier.Valid() {
			tier = unknownTier
		}
		byTier[tier] = append(byTier[tier], q)
	}
	return byTier
}
