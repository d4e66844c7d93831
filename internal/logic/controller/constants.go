package controller

import "time"

const (
	// LabelDomain prefixes every label and annotation the reconciler owns.
	LabelDomain = "workload-reconciler.beta.k8s.skillcoder.com/"

	// ManagedLabelKey marks pods created by the reconciler.
	ManagedLabelKey      = LabelDomain + "managed"
	ManagedLabelSelector = ManagedLabelKey + "=true"
	WorkloadLabelKey     = LabelDomain + "workload"
	OrdinalLabelKey      = LabelDomain + "ordinal"

	RestartCountAnnotationKey = LabelDomain + "restart-count"
	SpecHashAnnotationKey     = LabelDomain + "spec-hash"
	GenerationAnnotationKey   = LabelDomain + "generation"
)

// SeenEventsWindow sizes the tracker's duplicate-event window for the
// rate of events one controller processes.
const SeenEventsWindow = 4096

const (
	transitionBuffer = 1024

	// an issued action whose effect was not observed within this many sync
	// intervals is issued again.
	issuedTTLIntervals = 3
)

// DefaultInterval is the spec sync and resync period.
const DefaultInterval = 10 * time.Second
