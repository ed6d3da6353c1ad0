package sched

import (
	"encoding/json"
)

// Serialize Job to a binary slice for the store. The store treats the
// result as opaque; only the engine reads it back.
func (j *Job) Serialize() ([]byte, error) {
	return json.Marshal(j)
}

// DeserializeJob decodes a store blob back into a Job.
func DeserializeJob(input []byte) (*Job, error) {
	job := &Job{}
	if err := json.Unmarshal(input, job); err != nil {
		return nil, err
	}
	return job, nil
}
