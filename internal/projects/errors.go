package projects

import "fmt"

// InvalidPatternError is returned when a regex rule carries a pattern that
// does not compile. Index is the position of the rule in the rule list.
type InvalidPatternError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid regex pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("rule %d: invalid regex pattern %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
