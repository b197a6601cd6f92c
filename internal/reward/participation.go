package reward

const (
	// FallbackXP is granted when a submission cannot be graded.
	FallbackXP = 5

	FeedbackCorrect   = "Correct!"
	FeedbackIncorrect = "Try again next time!"
	FeedbackUngraded  = "Unable to grade solution"
)

// Grade is the reward for a quick submission that lacks timing or tier data,
// such as a competition answer.
type Grade struct {
	IsCorrect bool   `json:"is_correct"`
	XPGained  int    `json:"xp_gained"`
	Feedback  string `json:"feedback"`
}

// Participation returns the grade for a submission whose correctness is known.
func Participation(isCorrect bool) Grade {
	if isCorrect {
		return Grade{IsCorrect: true, XPGained: BaseXP + CorrectBonusXP, Feedback: FeedbackCorrect}
	}
	return Grade{IsCorrect: false, XPGained: BaseXP, Feedback: FeedbackIncorrect}
}

// Fallback returns the participation grade for a submission that could not be graded.
func Fallback() Grade {
	return Grade{IsCorrect: false, XPGained: FallbackXP, Feedback: FeedbackUngraded}
}
