package grouping

import "github.com/unclebandit/phishing-campaigns/internal/model"

const (
	minScore = 10
	maxScore = 100
)

// Diversity counts distinct departments in members; users without a
// department count as one more department.
func Diversity(members []Member) int {
	seen := make(map[deptKey]struct{}, len(members))
	for _, m := range members {
		seen[keyOf(m.DepartmentID)] = struct{}{}
	}
	return len(seen)
}

// Score is the placeholder susceptibility score: fewer departments, higher score.
func Score(members []Member) float64 {
	s := 110 - float64(Diversity(members))*20
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func DifficultyFor(score float64) model.Difficulty {
	switch {
	case score >= 70:
		return model.DifficultyHigh
	case score >= 40:
		return model.DifficultyMedium
	default:
		return model.DifficultyLow
	}
}
