package pipeline

// State is a phase of a pipeline run.
type State int

const (
	Preparing State = iota
	LoadingBasicDimensions
	LoadingDependentDimensions
	LoadingFact
	BuildingIndexes
	Summarizing
	Done
	Failed
)

var stateNames = [...]string{
	Preparing:                  "preparing",
	LoadingBasicDimensions:     "loading_basic_dimensions",
	LoadingDependentDimensions: "loading_dependent_dimensions",
	LoadingFact:                "loading_fact",
	BuildingIndexes:            "building_indexes",
	Summarizing:                "summarizing",
	Done:                       "done",
	Failed:                     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
