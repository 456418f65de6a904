package coach

type Suggestion struct {
	DeltaSets int `json:"delta_sets"`
}

// Suggest lowers volume by one set when heart rate is elevated and sleep
// was short.
func Suggest(sig Signal) Suggestion {
	if sig.HRAvg >= 95 && sig.SleepHours < 6 {
		return Suggestion{DeltaSets: -1}
	}
	return Suggestion{}
}
