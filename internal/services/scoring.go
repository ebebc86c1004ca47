package services

// AnswerResult is one recorded answer's contribution to the numerator.
type AnswerResult struct {
	QuestionID   uint
	IsCorrect    bool
	PointsEarned int
}

// ComputeScore derives the final result of an attempt from its recorded
// answers and the point total snapshotted when the attempt started.
//
// The snapshot is the denominator: unanswered questions carry weight
// through it and earn nothing, and questions added to the quiz after the
// attempt began never change an in-flight score. The percentage keeps
// full float64 precision, and a zero-weight quiz scores zero rather than
// dividing by zero.
func ComputeScore(answers []AnswerResult, totalPoints int) (pointsEarned int, percent float64) {
	for _, a := range answers {
		if a.IsCorrect {
			pointsEarned += a.PointsEarned
		}
	}

	if totalPoints <= 0 {
		return pointsEarned, 0
	}

	percent = float64(pointsEarned) / float64(totalPoints) * 100
	return pointsEarned, percent
}

// GradeSelection grades a single selection against the correct option.
// A nil selectedOptionID is a skip and never earns points.
func GradeSelection(selectedOptionID *uint, correctOptionID uint, points int) (isCorrect bool, pointsEarned int) {
	if selectedOptionID == nil {
		return false, 0
	}
	if *selectedOptionID == correctOptionID {
		return true, points
	}
	return false, 0
}
