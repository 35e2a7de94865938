package interfaces

// Advisor proposes the next guess for a goal-seeking episode. Implementations
// live in internal/strategy and are selected by name through its registry.
type Advisor interface {
	// Next returns the next value to try. rangeMax is the inclusive upper
	// bound of the current difficulty range.
	Next(rangeMax int) int

	// Observe informs the advisor of the outcome of the last guess.
	Observe(guess int, success bool)

	// Reset clears any per-target state (called when the teacher issues a
	// new target).
	Reset()

	// Name returns the registered strategy name.
	Name() string
}
