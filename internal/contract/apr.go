package contract

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "02/01/2006"

// MonthlyPayment computes the equal-principal-and-interest installment for
// the given terms. The annual rate is a percentage figure such as 4.25.
func MonthlyPayment(loanAmount, annualRate float64, termMonths int) float64 {
	monthlyRate := annualRate / 100 / 12
	if monthlyRate == 0 {
		return loanAmount / float64(termMonths)
	}
	factor := math.Pow(1+monthlyRate, float64(termMonths))
	return loanAmount * monthlyRate * factor / (factor - 1)
}

// CalculateAPR derives the effective annual percentage rate from the nominal
// terms by bisection on the daily-compounded net present value of the
// installment cash flows. Fees reduce the disbursed amount in period zero.
func CalculateAPR(loanAmount, annualRate float64, termMonths int, fees float64, startDate time.Time) float64 {
	monthlyPayment := MonthlyPayment(loanAmount, annualRate, termMonths)

	// Day offsets of each cash flow from disbursement, natural months apart.
	days := make([]float64, termMonths+1)
	flows := make([]float64, termMonths+1)
	flows[0] = -(loanAmount - fees)
	for i := 1; i <= termMonths; i++ {
		paymentDate := addMonthsClamped(startDate, i)
		days[i] = paymentDate.Sub(startDate).Hours() / 24
		flows[i] = monthlyPayment
	}

	npv := func(rate float64) float64 {
		total := 0.0
		for i := range flows {
			total += flows[i] / math.Pow(1+rate/100, days[i]/365)
		}
		return total
	}

	low, high := 0.0, 100.0
	mid := 0.0
	for i := 0; i < 100; i++ {
		mid = (low + high) / 2
		v := npv(mid)
		if math.Abs(v) < 1e-6 {
			break
		}
		if v > 0 {
			low = mid
		} else {
			high = mid
		}
	}
	return math.Round(mid*100) / 100
}

// addMonthsClamped advances by whole months, clamping the day of month to the
// end of the target month so Jan 31 + 1 month lands on the last day of
// February rather than rolling into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	y := year + (m-1)/12
	m = (m-1)%12 + 1
	last := daysInMonth(y, time.Month(m))
	if day > last {
		day = last
	}
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Installment is one row of the amortization schedule.
type Installment struct {
	Month              int     `json:"month"`
	Date               string  `json:"date"` // DD/MM/YYYY
	PaymentAmount      float64 `json:"payment_amount"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

// RepaymentSchedule produces the full equal-installment amortization plan.
// The final period absorbs rounding drift so the remaining principal closes
// at exactly zero.
func RepaymentSchedule(loanAmount, annualRate float64, termMonths int, startDate string) ([]Installment, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid disbursement date %q (want DD/MM/YYYY): %w", startDate, err)
	}

	monthlyRate := annualRate / 100 / 12
	monthlyPayment := MonthlyPayment(loanAmount, annualRate, termMonths)
	remaining := loanAmount

	schedule := make([]Installment, 0, termMonths)
	for month := 1; month <= termMonths; month++ {
		interest := remaining * monthlyRate
		principal := monthlyPayment - interest
		payment := monthlyPayment

		if month == termMonths {
			principal = remaining
			payment = interest + principal
			remaining = 0
		} else {
			remaining = math.Max(remaining-principal, 0)
		}

		due := addMonthsClamped(start, month)
		schedule = append(schedule, Installment{
			Month:              month,
			Date:               due.Format(dateLayout),
			PaymentAmount:      round2(payment),
			Principal:          round2(principal),
			Interest:           round2(interest),
			RemainingPrincipal: round2(remaining),
		})
	}
	return schedule, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
