package sched

import (
	"fmt"
	"math/rand"

	"github.com/leanovate/gopter"

	"github.com/droverco/drover/tests/testhelpers"
)

// GenJobSpec generates a random valid JobSpec within the given capacity.
func GenJobSpec(rng *rand.Rand, maxCPU, maxMem int) JobSpec {
	spec := JobSpec{
		Type:     fmt.Sprintf("jobType:%s", testhelpers.GenRandomAlphaNumericString(rng)),
		Priority: Priority(rng.Intn(NumPriorities)),
		Payload:  []byte(testhelpers.GenRandomAlphaNumericString(rng)),
		CPUUnits: rng.Intn(maxCPU) + 1,
		MemoryMB: rng.Intn(maxMem) + 1,
	}
	spec.ApplyDefaults()
	return spec
}

// GenJob generates a random Job with the specified id.
func GenJob(id string, rng *rand.Rand) Job {
	return Job{
		Id:     id,
		Def:    GenJobSpec(rng, 8, 4096),
		Status: Status(rng.Intn(int(DeadLettered) + 1)),
	}
}

// GopterGenJob wraps GenJob for property based tests.
func GopterGenJob() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		id := testhelpers.GenRandomAlphaNumericString(genParams.Rng)
		job := GenJob(id, genParams.Rng)
		return gopter.NewGenResult(&job, gopter.NoShrinker)
	}
}

// GopterGenJobSpec wraps GenJobSpec for property based tests.
func GopterGenJobSpec() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		spec := GenJobSpec(genParams.Rng, 8, 4096)
		return gopter.NewGenResult(spec, gopter.NoShrinker)
	}
}
