package model

import "github.com/rotisserie/eris"

// LatencyClass is a backend's declared speed tier.
type LatencyClass string

const (
	LatencyFast     LatencyClass = "fast"
	LatencyStandard LatencyClass = "standard"
	LatencySlow     LatencyClass = "slow"
)

// Rank returns a comparable rank for the latency class; lower is faster.
func (l LatencyClass) Rank() int {
	switch l {
	case LatencyFast:
		return 0
	case LatencyStandard:
		return 1
	case LatencySlow:
		return 2
	default:
		return 1
	}
}

// AccuracyClass is a backend's declared accuracy tier.
type AccuracyClass string

const (
	AccuracyApproximate AccuracyClass = "approximate"
	AccuracyStandard    AccuracyClass = "standard"
	AccuracyHigh        AccuracyClass = "high"
)

// Rank returns a comparable rank for the accuracy class; higher is better.
func (a AccuracyClass) Rank() int {
	switch a {
	case AccuracyApproximate:
		return 0
	case AccuracyStandard:
		return 1
	case AccuracyHigh:
		return 2
	default:
		return 1
	}
}

// ModelProfile is the immutable configuration of one inference backend.
// Tags name the field keys the backend is declared capable of; an empty
// tag list means the backend is eligible for every field.
type ModelProfile struct {
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Provider    string        `json:"provider" yaml:"provider" mapstructure:"provider"`
	Model       string        `json:"model" yaml:"model" mapstructure:"model"`
	Latency     LatencyClass  `json:"latency" yaml:"latency" mapstructure:"latency"`
	Accuracy    AccuracyClass `json:"accuracy" yaml:"accuracy" mapstructure:"accuracy"`
	CostWeight  float64       `json:"cost_weight" yaml:"cost_weight" mapstructure:"cost_weight"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags" mapstructure:"tags"`
	Temperature float64       `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// Supports reports whether the backend is declared capable of the field.
func (m ModelProfile) Supports(fieldKey string) bool {
	if len(m.Tags) == 0 {
		return true
	}
	for _, t := range m.Tags {
		if t == fieldKey {
			return true
		}
	}
	return false
}

// Mode selects the extraction strategy for a run.
type Mode string

const (
	ModeParallel  Mode = "parallel"
	ModeConsensus Mode = "consensus"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeParallel, ModeConsensus:
		return Mode(s), nil
	default:
		return "", eris.Errorf("unknown mode %q (want parallel or consensus)", s)
	}
}

// Priority biases backend selection for a run.
type Priority string

const (
	PrioritySpeed    Priority = "speed"
	PriorityBalanced Priority = "balanced"
	PriorityAccuracy Priority = "accuracy"
)

// ParsePriority validates a priority string.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PrioritySpeed, PriorityBalanced, PriorityAccuracy:
		return Priority(s), nil
	default:
		return "", eris.Errorf("unknown priority %q (want speed, balanced or accuracy)", s)
	}
}
