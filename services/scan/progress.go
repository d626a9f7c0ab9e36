package scan

// Tracker turns raw unit counts into user-facing progress. the time
// estimate is a heuristic for display only, nothing schedules off it.
type Tracker struct {
	// rough wall-clock cost of scanning one unit
	SecondsPerUnit int
}

const defaultSecondsPerUnit = 12

type Progress struct {
	UnitsCompleted            int     `json:"unitsCompleted"`
	UnitsEstimatedTotal       int     `json:"unitsEstimatedTotal"`
	Percentage                float64 `json:"percentage"`
	EstimatedSecondsRemaining int     `json:"estimatedSecondsRemaining"`
}

func (t Tracker) Update(completed, estimatedTotal int) Progress {
	out := Progress{
		UnitsCompleted:      completed,
		UnitsEstimatedTotal: estimatedTotal,
	}
	if estimatedTotal <= 0 {
		return out
	}

	// the total is an estimate, completed can legitimately run past it
	pct := float64(completed) / float64(estimatedTotal) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	out.Percentage = pct

	perUnit := t.SecondsPerUnit
	if perUnit <= 0 {
		perUnit = defaultSecondsPerUnit
	}
	if remaining := estimatedTotal - completed; remaining > 0 {
		out.EstimatedSecondsRemaining = remaining * perUnit
	}
	return out
}
