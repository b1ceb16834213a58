// Package model defines the data types shared across the loan pipeline.
package model

import "time"

// DocumentKind identifies one of the documents in an application bundle.
type DocumentKind string

// Documents every application bundle must carry.
const (
	DocumentIDCard          DocumentKind = "idCard"
	DocumentCreditReport    DocumentKind = "creditReport"
	DocumentSalarySlip      DocumentKind = "salarySlip"
	DocumentEmploymentProof DocumentKind = "employmentProof"
)

// RequiredDocuments lists the document kinds a bundle must include.
func RequiredDocuments() []DocumentKind {
	return []DocumentKind{
		DocumentIDCard,
		DocumentCreditReport,
		DocumentSalarySlip,
		DocumentEmploymentProof,
	}
}

// PersonalInfo is the applicant data submitted on the form.
type PersonalInfo struct {
	FullName        string  `json:"full_name"`
	IDNumber        string  `json:"id_number"`
	PhoneNumber     string  `json:"phone_number"`
	Email           string  `json:"email"`
	Address         string  `json:"address"`
	AccountNumber   string  `json:"account_number"`
	MonthlyIncome   float64 `json:"monthly_income"`
	ForeignResident bool    `json:"foreign_resident"`
}

// CarSelection describes the vehicle being financed.
type CarSelection struct {
	Brand                   string  `json:"brand"`
	Model                   string  `json:"model"`
	Year                    int     `json:"year"`
	Used                    bool    `json:"used"`
	PriceCNY                float64 `json:"price_cny"`
	CrossBorderRegistration bool    `json:"cross_border_registration"`
}

// LoanDetails holds the requested loan terms.
type LoanDetails struct {
	AmountCNY      float64 `json:"amount_cny"`
	InterestRate   float64 `json:"interest_rate"`
	TermMonths     int     `json:"term_months"`
	EarlyRepayment bool    `json:"early_repayment_planned"`
}

// ApplicationBundle is the raw submission the workflow starts from.
type ApplicationBundle struct {
	ApplicationID string                  `json:"application_id"`
	UserID        string                  `json:"user_id"`
	Personal      PersonalInfo            `json:"personal_info"`
	Car           CarSelection            `json:"car_selection"`
	Loan          LoanDetails             `json:"loan_details"`
	Documents     map[DocumentKind][]byte `json:"documents"`
}

// Identity holds the fields extracted from the ID card.
type Identity struct {
	FullName string `json:"full_name"`
	IDNumber string `json:"id_number"`
}

// Employment holds the fields extracted from the employment proof.
type Employment struct {
	Company       string    `json:"company"`
	OnboardDate   time.Time `json:"onboard_date"`
	Position      string    `json:"position"`
	MonthlyIncome float64   `json:"monthly_income"`
}

// CreditResult is the credit rating evaluator output. Err is set instead of
// propagating evaluator failures so the fan-in barrier can always proceed.
type CreditResult struct {
	Score int    `json:"score"`
	Err   string `json:"error,omitempty"`
}

// FraudResult is the fraud detection evaluator output.
type FraudResult struct {
	IsSuspicious   bool     `json:"is_suspicious"`
	Items          []string `json:"suspicious_items"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
	Status         Decision `json:"status"`
	Err            string   `json:"error,omitempty"`
}

// ComplianceResult is the regulatory compliance evaluator output.
type ComplianceResult struct {
	Status Decision `json:"status"` // approved or rejected
	Detail string   `json:"detail"`
	Err    string   `json:"error,omitempty"`
}

// ReviewInterrupt is the payload handed to a human reviewer when the
// workflow suspends. It summarizes the decision inputs.
type ReviewInterrupt struct {
	ApplicationID  string            `json:"application_id"`
	ThreadID       string            `json:"thread_id"`
	CollectionDone bool              `json:"data_collection_done"`
	Credit         *CreditResult     `json:"credit_rating_result"`
	Fraud          *FraudResult      `json:"fraud_detection_result"`
	Compliance     *ComplianceResult `json:"compliance_result"`
	Decision       Decision          `json:"decision_result"`
}

// ResumePayload is what an external caller supplies to resume a suspended
// workflow. Status must be approved or rejected; anything else is a
// protocol error.
type ResumePayload struct {
	Status   Decision `json:"status"`
	Feedback string   `json:"feedback"`
}

// ContractFile holds the rendered contract artifact and its metadata.
type ContractFile struct {
	Name      string `json:"file_name"`
	Type      string `json:"file_type"`
	Extension string `json:"file_extension"`
	Size      int64  `json:"file_size"`
	Data      []byte `json:"binary_data"`
}

// ApplicationState is the single mutable record threading through the
// pipeline. Each stage owns a disjoint set of fields; a checkpoint of this
// record is written at every stage boundary.
type ApplicationState struct {
	ApplicationID string            `json:"application_id"`
	ThreadID      string            `json:"thread_id"`
	Bundle        ApplicationBundle `json:"bundle"`

	// data_collect output
	Identity             *Identity   `json:"identity,omitempty"`
	Salary               float64     `json:"salary"`
	Employment           *Employment `json:"employment,omitempty"`
	CreditReport         []byte      `json:"credit_report,omitempty"`
	DataCollectionStatus string      `json:"data_collection_status,omitempty"` // completed/failed

	// parallel risk evaluator outputs (disjoint fields, no lock needed)
	Credit     *CreditResult     `json:"credit_rating_result,omitempty"`
	Fraud      *FraudResult      `json:"fraud_detection_result,omitempty"`
	Compliance *ComplianceResult `json:"compliance_result,omitempty"`

	// fan-in bookkeeping
	CheckAttempts int `json:"check_attempts"`

	// decision output
	Decision Decision `json:"decision_result,omitempty"`

	// human review output
	HumanApproval Decision `json:"human_approval_status,omitempty"`
	HumanFeedback string   `json:"human_feedback,omitempty"`

	// contract pipeline outputs
	StructuringStatus StageStatus     `json:"loan_structuring_status,omitempty"`
	StructuringResult string          `json:"loan_structuring_result,omitempty"`
	Contract          *ContractData   `json:"loan_structuring_data,omitempty"`
	GenerationStatus  StageStatus     `json:"contract_generation_status,omitempty"`
	GenerationResult  string          `json:"contract_generation_result,omitempty"`
	ContractDraft     string          `json:"contract_draft,omitempty"`
	ContractFile      *ContractFile   `json:"contract_file,omitempty"`
	ReviewStatus      ReviewStatus    `json:"contract_review_status,omitempty"`
	ReviewResult      string          `json:"contract_review_result,omitempty"`
	ReviewDetail      *ContractReview `json:"contract_review_detail,omitempty"`
	ModifyStatus      StageStatus     `json:"contract_modify_status,omitempty"`
	ModifyResult      string          `json:"contract_modify_result,omitempty"`
	ReviseAttempts    int             `json:"revise_attempts"`

	// free-form progress marker surfaced to callers
	Status string `json:"status,omitempty"`
}

// ChecksComplete reports whether all three risk evaluator results are present.
func (s *ApplicationState) ChecksComplete() bool {
	return s.Credit != nil && s.Fraud != nil && s.Compliance != nil
}

// FinalRecord is the bit-exact field set the surrounding persistence layer
// reads back after the workflow reaches a terminal state.
type FinalRecord struct {
	ApplicationID      string       `json:"application_id"`
	Status             string       `json:"status"`
	StructuringStatus  StageStatus  `json:"loan_structuring_status"`
	GenerationStatus   StageStatus  `json:"contract_generation_status"`
	ReviewStatus       ReviewStatus `json:"contract_review_status"`
	ModifyStatus       StageStatus  `json:"contract_modify_status"`
	ContractFileName   string       `json:"contract_file_name"`
	ContractFileType   string       `json:"contract_file_type"`
	ContractBinaryData []byte       `json:"contract_binary_data"`
}

// Final projects the state into the persisted terminal record.
func (s *ApplicationState) Final() FinalRecord {
	rec := FinalRecord{
		ApplicationID:     s.ApplicationID,
		Status:            s.Status,
		StructuringStatus: s.StructuringStatus,
		GenerationStatus:  s.GenerationStatus,
		ReviewStatus:      s.ReviewStatus,
		ModifyStatus:      s.ModifyStatus,
	}
	if s.ContractFile != nil {
		rec.ContractFileName = s.ContractFile.Name
		rec.ContractFileType = s.ContractFile.Type
		rec.ContractBinaryData = s.ContractFile.Data
	}
	return rec
}
