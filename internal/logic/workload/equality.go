package workload

import (
	"time"

	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/conversion"
)

// Semantic compares domain values the way equality.Semantic compares API
// objects: nil and empty slices and maps are equal, and two times are equal
// when they denote the same instant.
var Semantic = semantic()

func semantic() conversion.Equalities {
	e := equality.Semantic.Copy()

	if err := e.AddFunc(func(a, b time.Time) bool { return a.Equal(b) }); err != nil {
		panic(err)
	}

	return e
}
