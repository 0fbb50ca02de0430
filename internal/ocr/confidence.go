package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b|\b20\d{2}-\d{2}-\d{2}\b`)
	reCurrency = regexp.MustCompile(`\b(usd|eur|gbp|inr|rs)\b|[$£€₹]`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reInvoice  = regexp.MustCompile(`\b(invoice|bill|gstin|tax)\b`)
)

// HeuristicConfidence scores text 0..1 by the invoice artifacts it contains.
func HeuristicConfidence(txt string) float32 {
	l := strings.ToLower(txt)
	score := float32(0.2)
	if reDate.MatchString(l) {
		score += 0.2
	}
	if reCurrency.MatchString(l) {
		score += 0.15
	}
	if reAmount.MatchString(l) {
		score += 0.15
	}
	if reInvoice.MatchString(l) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	return min(score, 1.0)
}

// blendConfidence weights engine confidence higher when it is known.
func blendConfidence(engine, heuristic float32) float32 {
	if engine <= 0 {
		return heuristic
	}
	return min(0.7*engine+0.3*heuristic, 1.0)
}
