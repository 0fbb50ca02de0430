package extract

import "github.com/saikiran76/SwipeAI/constants"

// IsSimilar compares two strings on their letters only, ignoring case, so
// header noise such as "QTY:" or "Pri-ce" still matches "Qty" and "Price".
func IsSimilar(a, b string) bool {
	return constants.LettersOnly(a) == constants.LettersOnly(b)
}
