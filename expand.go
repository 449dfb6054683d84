package aural

// Expand reconciles operand lists of possibly different lengths to a
// single channel count. It returns lmax, the length of the longest
// list; callers index every list through Wrap for i in [0, lmax).
// An empty operand list is a ConfigurationError, never treated as
// length one.
func Expand(lists ...[]Param) (int, error) {
	lmax := 1
	for _, list := range lists {
		if len(list) == 0 {
			return 0, NewConfigError("expand", "empty operand list")
		}
		if len(list) > lmax {
			lmax = len(list)
		}
	}
	return lmax, nil
}

// Wrap cycles a shorter list to match the longest operand list:
// Wrap(list, i) is list[i mod len(list)]. The list must be non-empty.
func Wrap[T any](list []T, i int) T {
	return list[i%len(list)]
}
