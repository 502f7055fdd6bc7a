// Package generate produces synthetic rosters for benchmarks and demos. All
// randomness flows from the explicit seed, so the same spec and seed always
// produce the same roster.
package generate

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/classforge/classforge/pkg/roster"
)

type Spec struct {
	Students int

	// Clubs and Cohorts are the categorical pools to draw from; empty slices
	// leave the column blank
	Clubs   []string
	Cohorts []string

	// Subjects, when non-empty, gives every student a preferred subject
	Subjects []string

	// DislikeRate is the fraction of students that receive a bad relation
	DislikeRate float64

	LeaderRate   float64
	PianoRate    float64
	TruantRate   float64
	AthleticRate float64
}

// DefaultSpec mirrors the proportions of a typical grade cohort
func DefaultSpec(students int) Spec {
	return Spec{
		Students:     students,
		Clubs:        []string{"soccer", "band", "art", "chess"},
		Cohorts:      []string{"1", "2", "3", "4", "5", "6"},
		DislikeRate:  0.1,
		LeaderRate:   0.15,
		PianoRate:    0.2,
		TruantRate:   0.08,
		AthleticRate: 0.3,
	}
}

func Roster(spec Spec, seed int64) []roster.RawStudent {
	rng := rand.New(rand.NewSource(seed))

	students := make([]roster.RawStudent, spec.Students)
	for i := range students {
		students[i] = roster.RawStudent{
			ID:         strconv.Itoa(i),
			Name:       fmt.Sprintf("S%d", i),
			Score:      strconv.Itoa(50 + rng.Intn(51)),
			Gender:     pick(rng, []string{"boy", "girl"}),
			IsLeader:   flag(rng, spec.LeaderRate),
			PlaysPiano: flag(rng, spec.PianoRate),
			IsTruant:   flag(rng, spec.TruantRate),
			IsAthletic: flag(rng, spec.AthleticRate),
		}
		if len(spec.Clubs) > 0 && rng.Float64() < 0.6 {
			students[i].Club = pick(rng, spec.Clubs)
		}
		if len(spec.Cohorts) > 0 {
			students[i].LastYearClass = pick(rng, spec.Cohorts)
		}
		if len(spec.Subjects) > 0 {
			students[i].PreferredSubject = pick(rng, spec.Subjects)
		}
	}

	// A few dislike pairs
	dislikes := int(float64(spec.Students) * spec.DislikeRate)
	for i := 0; i < dislikes; i++ {
		a, b := rng.Intn(spec.Students), rng.Intn(spec.Students)
		if a != b && students[a].BadRelation == "" {
			students[a].BadRelation = strconv.Itoa(b)
		}
	}

	// Truant students get a friend to be paired with
	if spec.Students > 1 {
		for i := range students {
			if students[i].IsTruant == "yes" {
				friend := rng.Intn(spec.Students)
				for friend == i {
					friend = rng.Intn(spec.Students)
				}
				students[i].GoodRelation = strconv.Itoa(friend)
			}
		}
	}

	return students
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func flag(rng *rand.Rand, rate float64) string {
	if rng.Float64() < rate {
		return "yes"
	}
	return ""
}
