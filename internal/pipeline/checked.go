package pipeline

// CheckedState is the tri-state summary of how many entities in a resolved
// set carry a given association.
type CheckedState string

const (
	CheckedAll  CheckedState = "all"
	CheckedSome CheckedState = "some"
	CheckedNone CheckedState = "none"
)

// Checked classifies a match count against the size of the set it was
// counted over. An empty set is CheckedNone.
func Checked(matched, total int) CheckedState {
	switch {
	case total == 0 || matched == 0:
		return CheckedNone
	case matched == total:
		return CheckedAll
	}
	return CheckedSome
}
