package shared

import (
	"math"
	"strings"
)

var (
	smallNumbers = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensNumbers = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// AmountInWords spells a rupee amount using the Indian lakh/crore grouping,
// e.g. 212 -> "Rupees Two Hundred and Twelve Only".
func AmountInWords(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	if amount < 0 {
		return "Minus " + AmountInWords(-amount)
	}
	rupees := RoundHalfUp(Dec(amount)).IntPart()
	if rupees == 0 {
		return "Rupees Zero Only"
	}
	return "Rupees " + indianWords(rupees) + " Only"
}

func indianWords(n int64) string {
	var parts []string
	if n >= 10000000 {
		parts = append(parts, indianWords(n/10000000)+" Crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, under100(n/100000)+" Lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, under100(n/1000)+" Thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, smallNumbers[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+under100(n))
		} else {
			parts = append(parts, under100(n))
		}
	}
	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return smallNumbers[n]
	}
	out := tensNumbers[n/10]
	if n%10 != 0 {
		out += " " + smallNumbers[n%10]
	}
	return out
}
