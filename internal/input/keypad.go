package input

import "strconv"

// Quantity editing mimics typing into the quantity field of the most recent
// cart line without focusing it: Ctrl+digit appends to the decimal string
// form and re-parses, Ctrl+Backspace drops the last character.

// AppendDigit appends d to the string form of current and re-parses.
// A parse failure (overflow) keeps the previous quantity.
func AppendDigit(current int, d int) int {
	if d < 0 || d > 9 {
		return current
	}
	s := strconv.Itoa(current) + strconv.Itoa(d)
	n, err := strconv.Atoi(s)
	if err != nil {
		return current
	}
	return n
}

// TrimDigit removes the last character of the string form and re-parses.
// An empty or invalid remainder resets to 0.
func TrimDigit(current int) int {
	s := strconv.Itoa(current)
	s = s[:len(s)-1]
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
