package scoring

import "math"

const (
	priorityBanWeight  = 0.5
	priorityPickWeight = 0.3
	priorityWinWeight  = 0.2

	contestBanWeight  = 0.6
	contestPickWeight = 0.4

	// PowerEpsilon keeps the power denominator positive when banrate is 1.
	PowerEpsilon = 0.01
)

// Rates is the normalized [0,1] triple every score is computed from.
type Rates struct {
	WinRate  float64
	PickRate float64
	BanRate  float64
}

// Scores holds the derived rankings for one row.
type Scores struct {
	Priority float64
	Power    float64
	Draft    float64
}

// Priority weights ban over pick over win.
func Priority(winRate, pickRate, banRate float64) float64 {
	return priorityBanWeight*banRate + priorityPickWeight*pickRate + priorityWinWeight*winRate
}

// Power measures winrate outperformance scaled by presence and discounted by bans.
func Power(winRate, pickRate, banRate, avgWinRate float64) float64 {
	return (winRate - avgWinRate) * math.Sqrt(math.Max(pickRate, 0)) / (1 - banRate + PowerEpsilon)
}

// Contest is the draft-phase contestedness of a row.
func Contest(pickRate, banRate float64) float64 {
	return contestBanWeight*banRate + contestPickWeight*pickRate
}

// ZScore returns 0 when stddev is 0.
func ZScore(value, mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return (value - mean) / stddev
}

// MeanStdDev returns the mean and population standard deviation of values.
func MeanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}

// Annotate computes every score for a filtered role/tier set. Averages are
// taken over the given set, so callers must pass exactly the rows they rank.
func Annotate(set []Rates) []Scores {
	out := make([]Scores, len(set))
	if len(set) == 0 {
		return out
	}

	wins := make([]float64, len(set))
	for i, r := range set {
		wins[i] = r.WinRate
	}
	avgWin, _ := MeanStdDev(wins)

	strength := make([]float64, len(set))
	contest := make([]float64, len(set))
	for i, r := range set {
		strength[i] = r.WinRate - avgWin
		contest[i] = Contest(r.PickRate, r.BanRate)
	}
	strengthMean, strengthStd := MeanStdDev(strength)
	contestMean, contestStd := MeanStdDev(contest)

	for i, r := range set {
		out[i] = Scores{
			Priority: Priority(r.WinRate, r.PickRate, r.BanRate),
			Power:    Power(r.WinRate, r.PickRate, r.BanRate, avgWin),
			Draft:    ZScore(strength[i], strengthMean, strengthStd) + ZScore(contest[i], contestMean, contestStd),
		}
	}

	return out
}
