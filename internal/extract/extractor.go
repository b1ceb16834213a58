// Package extract converts raw document blobs into structured application
// fields. Recognition of text within images is delegated to an injected
// TextRecognizer; this package owns scratch-file lifecycle, container
// validation and best-effort field parsing.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/service"
)

// Unrecognized is the sentinel for a field the parser could not determine.
// Unrecognized values propagate downstream as low-confidence data; they do
// not fail the collection stage.
const Unrecognized = "unrecognized"

// ExtractionError indicates a structurally invalid input document (empty
// blob, wrong container format). It is fatal to the collection stage.
type ExtractionError struct {
	Document model.DocumentKind
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.Document, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Document, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor parses identity, salary and employment documents.
type Extractor struct {
	recognizer service.TextRecognizer
	scratch    *ScratchManager
}

// NewExtractor creates an extractor using the given recognizer and scratch
// directory.
func NewExtractor(recognizer service.TextRecognizer, scratchDir string) *Extractor {
	return &Extractor{
		recognizer: recognizer,
		scratch:    NewScratchManager(scratchDir),
	}
}

var (
	idNumberPattern = regexp.MustCompile(`[1-9]\d{5}(18|19|20)\d{2}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])\d{3}[\dXx]`)
	longDigitRun    = regexp.MustCompile(`\d{15,}`)
	labeledName     = regexp.MustCompile(`姓名\s*[:：]?\s*([\p{Han}]{2,4})`)
	hanName         = regexp.MustCompile(`^[\p{Han}]{2,4}$`)
	amountPattern   = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\.\d{1,2}|\d+\.\d{1,2}`)
	datePattern     = regexp.MustCompile(`(\d{4})[-/年.](\d{1,2})[-/月.](\d{1,2})`)
	labeledPosition = regexp.MustCompile(`(?:职位|职务|岗位)\s*[:：]?\s*(\S+)`)
	labeledCompany  = regexp.MustCompile(`(?:单位|公司名称|雇主)\s*[:：]?\s*(\S+)`)
	companyLike     = regexp.MustCompile(`\S*(?:有限公司|股份公司|集团|公司|GmbH|AG|Ltd)\S*`)
	monthlyIncome   = regexp.MustCompile(`(?:月薪|月收入|月工资)\s*[:：]?\s*([\d,]+(?:\.\d{1,2})?)`)
)

// ExtractIdentity parses an ID card image and returns the holder's full
// name and id number. Fields that cannot be determined come back as the
// Unrecognized sentinel.
func (e *Extractor) ExtractIdentity(ctx context.Context, blob []byte) (model.Identity, error) {
	lines, err := e.recognize(ctx, model.DocumentIDCard, blob, ".jpg")
	if err != nil {
		return model.Identity{}, err
	}

	identity := model.Identity{
		FullName: Unrecognized,
		IDNumber: Unrecognized,
	}

	// The name sits in the top portion of the card; prefer a labeled match.
	top := lines
	if len(top) > 3 {
		top = lines[:len(lines)/3+1]
	}
	for _, line := range top {
		if m := labeledName.FindStringSubmatch(line); m != nil {
			identity.FullName = m[1]
			break
		}
	}
	if identity.FullName == Unrecognized {
		for _, line := range top {
			if hanName.MatchString(strings.TrimSpace(line)) {
				identity.FullName = strings.TrimSpace(line)
				break
			}
		}
	}

	// The id number sits near the bottom; strip everything but digits and X
	// before matching so split boxes still concatenate correctly.
	bottom := lines
	if len(bottom) > 3 {
		bottom = lines[len(lines)-3:]
	}
	var digits strings.Builder
	for _, line := range bottom {
		for _, r := range line {
			if (r >= '0' && r <= '9') || r == 'X' || r == 'x' {
				digits.WriteRune(r)
			}
		}
	}
	combined := digits.String()
	if m := idNumberPattern.FindString(combined); m != "" {
		identity.IDNumber = strings.ToUpper(m)
	} else if m := longDigitRun.FindString(combined); m != "" {
		identity.IDNumber = m
	}

	slog.Debug("identity extracted",
		"name_recognized", identity.FullName != Unrecognized,
		"id_recognized", identity.IDNumber != Unrecognized)

	return identity, nil
}

// ExtractSalary parses a salary flow document and returns the salary
// amount. A zero amount means the parser found no recognizable figure.
func (e *Extractor) ExtractSalary(ctx context.Context, blob []byte) (float64, error) {
	lines, err := e.recognize(ctx, model.DocumentSalarySlip, blob, ".jpg")
	if err != nil {
		return 0, err
	}

	// Prefer an amount on a line mentioning salary; otherwise take the
	// largest amount on the page.
	var best float64
	for _, line := range lines {
		amounts := amountPattern.FindAllString(line, -1)
		if len(amounts) == 0 {
			continue
		}
		salaryLine := strings.Contains(line, "工资") ||
			strings.Contains(line, "代发") ||
			strings.Contains(strings.ToLower(line), "salary")
		for _, raw := range amounts {
			v, parseErr := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if parseErr != nil {
				continue
			}
			if salaryLine {
				return v, nil
			}
			if v > best {
				best = v
			}
		}
	}
	return best, nil
}

// ExtractEmployment parses an employment proof document. Company and
// position fall back to the Unrecognized sentinel; a zero time means the
// onboard date could not be determined.
func (e *Extractor) ExtractEmployment(ctx context.Context, blob []byte) (model.Employment, error) {
	lines, err := e.recognize(ctx, model.DocumentEmploymentProof, blob, ".docx")
	if err != nil {
		return model.Employment{}, err
	}

	emp := model.Employment{
		Company:  Unrecognized,
		Position: Unrecognized,
	}

	for _, line := range lines {
		if emp.Company == Unrecognized {
			if m := labeledCompany.FindStringSubmatch(line); m != nil {
				emp.Company = m[1]
			} else if m := companyLike.FindString(line); m != "" {
				emp.Company = m
			}
		}
		if emp.Position == Unrecognized {
			if m := labeledPosition.FindStringSubmatch(line); m != nil {
				emp.Position = m[1]
			}
		}
		if emp.OnboardDate.IsZero() {
			if m := datePattern.FindStringSubmatch(line); m != nil {
				year, _ := strconv.Atoi(m[1])
				month, _ := strconv.Atoi(m[2])
				day, _ := strconv.Atoi(m[3])
				if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
					emp.OnboardDate = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
				}
			}
		}
		if emp.MonthlyIncome == 0 {
			if m := monthlyIncome.FindStringSubmatch(line); m != nil {
				v, parseErr := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
				if parseErr == nil {
					emp.MonthlyIncome = v
				}
			}
		}
	}

	return emp, nil
}

// ValidateCreditReport checks that a credit report blob is a structurally
// valid PDF. The report itself is parsed later by the credit evaluator.
func (e *Extractor) ValidateCreditReport(blob []byte) error {
	if len(blob) == 0 {
		return &ExtractionError{Document: model.DocumentCreditReport, Reason: "empty document"}
	}
	if !bytes.HasPrefix(blob, []byte("%PDF-")) {
		return &ExtractionError{Document: model.DocumentCreditReport, Reason: "not a PDF container"}
	}
	if err := api.Validate(bytes.NewReader(blob), pdfmodel.NewDefaultConfiguration()); err != nil {
		return &ExtractionError{Document: model.DocumentCreditReport, Reason: "PDF validation failed", Err: err}
	}
	return nil
}

// recognize writes the blob to a scratch file, runs the recognizer over it
// and guarantees scratch cleanup on every exit path.
func (e *Extractor) recognize(ctx context.Context, kind model.DocumentKind, blob []byte, suffix string) ([]string, error) {
	if len(blob) == 0 {
		return nil, &ExtractionError{Document: kind, Reason: "empty document"}
	}

	path, cleanup, err := e.scratch.CreateFile(blob, suffix)
	if err != nil {
		return nil, &ExtractionError{Document: kind, Reason: "scratch file creation failed", Err: err}
	}
	defer cleanup()

	lines, err := e.recognizer.RecognizeText(ctx, path)
	if err != nil {
		return nil, &ExtractionError{Document: kind, Reason: "text recognition failed", Err: err}
	}
	return lines, nil
}
