package checkout

type Status string

const (
	StatusEmpty      Status = "EMPTY"
	StatusStaged     Status = "STAGED"
	StatusAdjusting  Status = "ADJUSTING"
	StatusSubmitting Status = "SUBMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var transitions = map[Status][]Status{
	StatusEmpty:      {StatusStaged},
	StatusStaged:     {StatusStaged, StatusAdjusting, StatusSubmitting},
	StatusAdjusting:  {StatusStaged},
	StatusSubmitting: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusStaged},
	StatusCompleted:  {StatusStaged},
}

// IsTerminal reports whether a submission has finished, successfully or not.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
