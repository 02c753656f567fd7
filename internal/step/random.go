package step

import (
	"math/rand"

	"github.com/metropipe/metropipe/internal/config"
)

// seedDefault is used when the configuration carries no random_seed key.
var seedDefault = 0

// SeedParameter returns the random_seed descriptor every RandomStep class
// includes in its Parameters map under the name "random_seed".
func SeedParameter() ParamBinder {
	return ParameterDescriptor[int]{
		Key:             "random_seed",
		Valid:           config.IntValidator{},
		Default:         &seedDefault,
		DescriptionText: "Seed for the random number generator.",
		NoteText:        "Identical seeds produce identical sampled output across runs.",
		ExampleText:     "random_seed = 42",
	}
}

// RandomBase is the convenience embedded by Step classes that sample:
// it pairs the random_seed parameter with a deterministic RNG factory.
// Identical seed, identical output streams for all sampling helpers.
type RandomBase struct {
	Base
}

// Rng builds the step's generator from its resolved random_seed parameter.
func (RandomBase) Rng(inst *Instance) *rand.Rand {
	seed := seedDefault
	if v, err := inst.Param("random_seed"); err == nil {
		if s, ok := v.(int); ok {
			seed = s
		}
	}
	return rand.New(rand.NewSource(int64(seed)))
}
