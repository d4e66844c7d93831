package workload

import (
	"encoding/json"
	"hash/fnv"
	"strconv"

	"k8s.io/apimachinery/pkg/util/rand"
)

type hashInput struct {
	Container Container         `json:"container"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// SpecHash returns a short stable hash of the pod-shaping fields of a spec.
// A pod whose recorded hash differs was created from an older spec.
func SpecHash(spec *WorkloadSpec) string {
	// json sorts map keys, so the encoding is deterministic.
	data, err := json.Marshal(hashInput{
		Container: spec.Container,
		Labels:    spec.Labels,
	})
	if err != nil {
		return ""
	}

	hasher := fnv.New32a()
	_, _ = hasher.Write(data)

	return rand.SafeEncodeString(strconv.FormatUint(uint64(hasher.Sum32()), 10))
}
