package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Feature names accepted in Config.BalanceFeatures. Boolean features are
// bounded per classroom by [floor(total/K), ceil(total/K)]; the categorical
// ones apply the same rule per distinct value.
const (
	FeaturePlaysInstrument = "plays_instrument"
	FeatureTruant          = "is_truant"
	FeatureAthletic        = "is_athletic"
	FeatureGender          = "gender"
	FeatureClub            = "club"
)

type Config struct {
	NumClassrooms int

	// Capacities maps classroom id to its exact size; when nil the sizes are
	// derived from the population with PartitionCapacities
	Capacities map[int]int

	// ScoreTolerance is the allowed fraction of deviation of each classroom's
	// score sum from total/K
	ScoreTolerance float64

	LeaderMin int
	LeaderMax int

	BalanceFeatures []string

	MaxPriorCohortOverlap int

	// ClassroomSubjects tags classrooms with a required subject; students with
	// a preference may only be assigned to a classroom tagged with it
	ClassroomSubjects map[int]string

	// PairAllGoodRelations promotes every good relation to a must-pair instead
	// of only those owned by truant students
	PairAllGoodRelations bool

	TimeBudget time.Duration
	Seed       int64
}

// DefaultConfig mirrors the tolerances the assignment problem ships with:
// 5% score deviation, one to five leaders per classroom, at most seven
// classmates carried over from the same prior cohort, 60 seconds of search.
func DefaultConfig(numClassrooms int) Config {
	return Config{
		NumClassrooms:         numClassrooms,
		ScoreTolerance:        0.05,
		LeaderMin:             1,
		LeaderMax:             5,
		BalanceFeatures:       []string{FeaturePlaysInstrument, FeatureTruant, FeatureAthletic, FeatureGender, FeatureClub},
		MaxPriorCohortOverlap: 7,
		TimeBudget:            60 * time.Second,
	}
}

// rawConfig is the external configuration surface; keys follow the input
// schema, values stay loosely typed until validated
type rawConfig struct {
	NumClassrooms         int               `mapstructure:"num_classrooms"`
	ClassroomCapacities   map[string]int    `mapstructure:"classroom_capacities"`
	ScoreTolerance        *float64          `mapstructure:"score_tolerance_fraction"`
	LeaderMin             *int              `mapstructure:"leader_min_per_classroom"`
	LeaderMax             *int              `mapstructure:"leader_max_per_classroom"`
	BalanceFeatures       []string          `mapstructure:"balance_features"`
	MaxPriorCohortOverlap *int              `mapstructure:"max_prior_cohort_overlap"`
	ClassroomSubjects     map[string]string `mapstructure:"classroom_subjects"`
	PairAllGoodRelations  bool              `mapstructure:"pair_all_good_relations"`
	SolveTimeBudget       *float64          `mapstructure:"solve_time_budget"`
	RandomSeed            int64             `mapstructure:"random_seed"`
}

// DecodeConfig validates a loosely typed configuration map into a Config,
// filling unset options with the defaults
func DecodeConfig(values map[string]any) (Config, error) {
	var raw rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &raw,
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(values); err != nil {
		return Config{}, fmt.Errorf("cannot decode configuration: %w", err)
	}

	if raw.NumClassrooms < 1 {
		return Config{}, fmt.Errorf("num_classrooms must be at least 1, got %d", raw.NumClassrooms)
	}

	config := DefaultConfig(raw.NumClassrooms)
	config.PairAllGoodRelations = raw.PairAllGoodRelations
	config.Seed = raw.RandomSeed

	if raw.ClassroomCapacities != nil {
		config.Capacities = make(map[int]int, len(raw.ClassroomCapacities))
		for key, size := range raw.ClassroomCapacities {
			id, err := strconv.Atoi(key)
			if err != nil {
				return Config{}, fmt.Errorf("classroom_capacities key %q is not a classroom id", key)
			}
			config.Capacities[id] = size
		}
	}
	if raw.ClassroomSubjects != nil {
		config.ClassroomSubjects = make(map[int]string, len(raw.ClassroomSubjects))
		for key, subject := range raw.ClassroomSubjects {
			id, err := strconv.Atoi(key)
			if err != nil {
				return Config{}, fmt.Errorf("classroom_subjects key %q is not a classroom id", key)
			}
			config.ClassroomSubjects[id] = subject
		}
	}

	if raw.ScoreTolerance != nil {
		if *raw.ScoreTolerance <= 0 {
			return Config{}, fmt.Errorf("score_tolerance_fraction must be positive, got %v", *raw.ScoreTolerance)
		}
		config.ScoreTolerance = *raw.ScoreTolerance
	}
	if raw.LeaderMin != nil {
		config.LeaderMin = *raw.LeaderMin
	}
	if raw.LeaderMax != nil {
		config.LeaderMax = *raw.LeaderMax
	}
	if raw.BalanceFeatures != nil {
		config.BalanceFeatures = raw.BalanceFeatures
	}
	if raw.MaxPriorCohortOverlap != nil {
		config.MaxPriorCohortOverlap = *raw.MaxPriorCohortOverlap
	}
	if raw.SolveTimeBudget != nil {
		config.TimeBudget = time.Duration(*raw.SolveTimeBudget * float64(time.Second))
	}

	return config, nil
}

// ConfigFromJSON reads a configuration file using the external key schema
func ConfigFromJSON(file string) (Config, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read configuration file: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(bytes, &values); err != nil {
		return Config{}, fmt.Errorf("cannot parse configuration file: %w", err)
	}
	return DecodeConfig(values)
}
