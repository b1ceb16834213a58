package contract

import (
	"fmt"
	"math"
	"strings"
)

var onesWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var scaleWords = []string{"", "thousand", "million", "billion"}

// numberToWords spells out a non-negative integer in English cardinal form.
func numberToWords(n int64) string {
	if n < 0 {
		return "minus " + numberToWords(-n)
	}
	if n < 20 {
		return onesWords[n]
	}

	var groups []string
	scale := 0
	for n > 0 {
		group := n % 1000
		if group > 0 {
			word := hundredsToWords(int(group))
			if scaleWords[scale] != "" {
				word += " " + scaleWords[scale]
			}
			groups = append([]string{word}, groups...)
		}
		n /= 1000
		scale++
	}
	return strings.Join(groups, " ")
}

func hundredsToWords(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" hundred")
		n %= 100
		if n > 0 {
			parts = append(parts, "and")
		}
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, onesWords[n])
	default:
		word := tensWords[n/10]
		if n%10 > 0 {
			word += "-" + onesWords[n%10]
		}
		parts = append(parts, word)
	}
	return strings.Join(parts, " ")
}

var currencyNames = map[string]struct{ unit, sub string }{
	"EUR": {"Euro", "Cent"},
	"USD": {"Dollar", "Cent"},
	"GBP": {"Pound", "Pence"},
	"JPY": {"Yen", "Sen"},
}

// uninflected currencies keep the same form in the plural.
var uninflectedCurrency = map[string]bool{"JPY": true}

// ConvertCurrency spells an amount as legal contract prose, for example
// "Four Thousand Three Hundred and Seventy-Five Euros and Fifty Cents only".
func ConvertCurrency(amount float64, currency string) string {
	code := strings.ToUpper(currency)
	names, ok := currencyNames[code]
	if !ok {
		names = struct{ unit, sub string }{currency, currency}
	}

	unit := names.unit
	sub := names.sub
	if !uninflectedCurrency[code] && math.Abs(amount) != 1 {
		unit += "s"
		sub += "s"
	}

	rounded := math.Round(amount*100) / 100
	intPart := int64(math.Floor(rounded))
	decPart := int64(math.Round((rounded - float64(intPart)) * 100))

	intWords := titleWords(numberToWords(intPart))
	if decPart > 0 {
		decWords := titleWords(numberToWords(decPart))
		return fmt.Sprintf("%s %s and %s %s only", intWords, unit, decWords, sub)
	}
	return fmt.Sprintf("%s %s only", intWords, unit)
}

// ConvertPercentage spells a percentage digit by digit after the point, for
// example 4.25 becomes "four point two five percent".
func ConvertPercentage(percentage float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.10f", percentage), "0"), ".")
	intStr, decStr, hasDec := strings.Cut(s, ".")

	var intVal int64
	fmt.Sscan(intStr, &intVal)
	if !hasDec {
		return numberToWords(intVal) + " percent"
	}

	digits := make([]string, 0, len(decStr))
	for _, d := range decStr {
		digits = append(digits, onesWords[d-'0'])
	}
	return fmt.Sprintf("%s point %s percent", numberToWords(intVal), strings.Join(digits, " "))
}

// ConvertNumber spells out an integer, used for the loan term in months.
func ConvertNumber(n int) string {
	return numberToWords(int64(n))
}

// titleWords capitalizes each word but keeps the conjunction lowercase, the
// customary style for amounts written out on contracts.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "and" {
			continue
		}
		if strings.Contains(w, "-") {
			parts := strings.Split(w, "-")
			for j, p := range parts {
				parts[j] = capitalize(p)
			}
			words[i] = strings.Join(parts, "-")
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
