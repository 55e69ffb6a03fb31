package models

// FetchOutcome is the terminal state a region reaches in the fetch pipeline.
type FetchOutcome int

const (
	Failed FetchOutcome = iota
	CachedHit
	FetchedFresh
)

func (o FetchOutcome) String() string {
	switch o {
	case CachedHit:
		return "cached"
	case FetchedFresh:
		return "fetched"
	default:
		return "failed"
	}
}

// OK reports whether the region produced a payload.
func (o FetchOutcome) OK() bool {
	return o == CachedHit || o == FetchedFresh
}
