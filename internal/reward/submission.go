package reward

// SubmissionKind tags the shape of a submitted solution.
type SubmissionKind string

const (
	SubmissionAnswered  SubmissionKind = "answered"
	SubmissionMissing   SubmissionKind = "missing"
	SubmissionMalformed SubmissionKind = "malformed"
)

// Submission is a solution validated at the boundary. Only answered
// submissions carry an answer; the others carry the reason they were rejected.
type Submission struct {
	Kind   SubmissionKind
	Answer string
	Reason string
}

// Answered wraps a well-formed answer.
func Answered(answer string) Submission {
	return Submission{Kind: SubmissionAnswered, Answer: answer}
}

// Missing marks an absent solution.
func Missing() Submission {
	return Submission{Kind: SubmissionMissing, Reason: "no solution submitted"}
}

// Malformed marks a solution that could not be read.
func Malformed(reason string) Submission {
	return Submission{Kind: SubmissionMalformed, Reason: reason}
}

// IsAnswered reports whether the submission can be graded.
func (s Submission) IsAnswered() bool {
	return s.Kind == SubmissionAnswered
}
