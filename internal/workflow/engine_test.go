package workflow

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/contract"
	"github.com/apexfin/loanflow/internal/extract"
	"github.com/apexfin/loanflow/internal/model"
	"github.com/apexfin/loanflow/internal/regsearch"
	"github.com/apexfin/loanflow/internal/risk"
	"github.com/apexfin/loanflow/internal/service"
	"github.com/apexfin/loanflow/internal/storage"
)

// creditReportPDF builds a minimal single-page PDF with correct xref offsets
// and the scoring facts embedded as a comment line, the report supplier's
// export convention.
func creditReportPDF(facts string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("% " + facts + "\n")

	offsets := make([]int, 4)
	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")

	xref := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= 3; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

const cleanFactsJSON = `{"overdue_count_2y":0,"has_overdue_60_plus":false,` +
	`"card_total_limit":50000,"card_used_limit":10000,"other_loan_balance":0,` +
	`"account_count":3,"has_public_records":false,"inquiry_count_3m":1}`

const midFactsJSON = `{"overdue_count_2y":1,"has_overdue_60_plus":false,` +
	`"card_total_limit":50000,"card_used_limit":10000,"other_loan_balance":0,` +
	`"account_count":3,"has_public_records":false,"inquiry_count_3m":1}`

func testBundle(factsJSON string) *model.ApplicationBundle {
	idCard := "姓名：张伟\n" +
		"性别 男 民族 汉\n" +
		"出生 1990年3月7日\n" +
		"住址 北京市东城区\n" +
		"公民身份号码 110101199003074258\n"
	salarySlip := "2025-03-01 代发工资 16,968.87\n"
	employment := "在职证明\n" +
		"单位：卡尔斯鲁厄信息技术有限公司\n" +
		"职位：高级工程师\n" +
		"入职日期：2019年6月1日\n"

	return &model.ApplicationBundle{
		ApplicationID: "APPL_372F03A6",
		UserID:        "user-1",
		Personal: model.PersonalInfo{
			FullName:      "张伟",
			IDNumber:      "110101199003074258",
			PhoneNumber:   "+49 151 2345 6789",
			Address:       "Kaiserstraße 10, 76133 Karlsruhe",
			AccountNumber: "DE89 3704 0044 0532 0130 00",
			MonthlyIncome: 15000,
		},
		Car: model.CarSelection{
			Brand:    "BMW",
			Model:    "320i",
			Year:     2022,
			PriceCNY: 280000,
		},
		Loan: model.LoanDetails{
			AmountCNY:    35000,
			InterestRate: 0.0425,
			TermMonths:   60,
		},
		Documents: map[model.DocumentKind][]byte{
			model.DocumentIDCard:          []byte(idCard),
			model.DocumentCreditReport:    creditReportPDF(factsJSON),
			model.DocumentSalarySlip:      []byte(salarySlip),
			model.DocumentEmploymentProof: []byte(employment),
		},
	}
}

// passingClauses are covered by the default contract template as generated.
func passingClauses() []model.Clause {
	return []model.Clause{
		{
			ID:          "REG-001",
			Title:       "Withdrawal Right",
			Content:     "Consumer credit contracts grant a 14 day withdrawal period.",
			CheckPoints: []string{"withdrawal period"},
		},
		{
			ID:          "REG-002",
			Title:       "Early Repayment Compensation",
			Content:     "Early repayment compensation is capped by statute.",
			CheckPoints: []string{"early repayment compensation"},
		},
	}
}

// insuranceClause is not covered by the default template; its revision text
// carries the missing wording, so one revision round fixes it.
func insuranceClause() model.Clause {
	return model.Clause{
		ID:          "REG-003",
		Title:       "Insurance Obligations",
		Content:     "The borrower maintains comprehensive insurance for the financed vehicle.",
		CheckPoints: []string{"comprehensive insurance obligations"},
	}
}

// noopReviser returns the template unchanged, so a failing clause keeps
// failing on every round.
type noopReviser struct{}

func (noopReviser) ReviseTemplate(_ context.Context, template string, _ []model.RevisionItem) (string, error) {
	return template, nil
}

type testEnv struct {
	engine *Engine
	store  *storage.SQLiteStorage
}

func newTestEnv(t *testing.T, clauses []model.Clause, reviser service.TemplateReviser) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.SaveClauses(ctx, clauses))

	dir := t.TempDir()
	templatePath := filepath.Join(dir, "loan_contract_template.tmpl")
	generator, err := contract.NewGenerator(templatePath)
	require.NoError(t, err)

	index := regsearch.NewIndex(clauses)

	engine, err := NewEngine(Config{
		Extractor:   extract.NewExtractor(extract.PlainTextRecognizer{}, filepath.Join(dir, "scratch")),
		Credit:      risk.NewCreditRater(risk.EmbeddedFactsParser{}),
		Fraud:       risk.NewFraudDetector(store),
		Compliance:  risk.NewComplianceChecker(index, risk.RuleBasedEvaluator{}),
		Structurer:  contract.NewStructurer(),
		Generator:   generator,
		Reviewer:    contract.NewReviewer(store, index, contract.KeywordClauseChecker{}),
		Reviser:     contract.NewReviser(reviser, templatePath, filepath.Join(dir, "backup")),
		Storage:     store,
		Checkpoints: store.NewCheckpointStore(),
	})
	require.NoError(t, err)

	return &testEnv{engine: engine, store: store}
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.Error(t, err)
}

func TestStartApprovedToCompletion(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(cleanFactsJSON))
	require.NoError(t, err)
	require.Nil(t, outcome.Suspended)

	state := outcome.State
	assert.Equal(t, model.StatusContractCompleted, state.Status)
	assert.Equal(t, "completed", state.DataCollectionStatus)
	assert.Equal(t, "张伟", state.Identity.FullName)
	assert.Equal(t, 16968.87, state.Salary)
	assert.Equal(t, 100, state.Credit.Score)
	assert.Equal(t, model.DecisionApproved, state.Fraud.Status)
	assert.Equal(t, model.DecisionApproved, state.Compliance.Status)
	assert.Equal(t, model.DecisionApproved, state.Decision)
	assert.Equal(t, model.StageSuccess, state.StructuringStatus)
	assert.Equal(t, model.StageSuccess, state.GenerationStatus)
	assert.Equal(t, model.ReviewApproved, state.ReviewStatus)
	assert.Equal(t, 0, state.ReviseAttempts)
	assert.Equal(t, "APX-FIN-2025-372F03A6", state.Contract.ContractNumber)
	require.NotNil(t, state.ContractFile)

	record, err := env.store.GetFinalRecord(ctx, "APPL_372F03A6")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContractCompleted, record.Status)
	assert.Equal(t, state.ContractFile.Name, record.ContractFileName)
	assert.Equal(t, "text/plain", record.ContractFileType)
	assert.NotEmpty(t, record.ContractBinaryData)

	// The submitted bundle was persisted before the run.
	bundle, err := env.store.GetApplication(ctx, "APPL_372F03A6")
	require.NoError(t, err)
	assert.Equal(t, "user-1", bundle.UserID)
}

func TestStartRejectsCompletedApplication(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(cleanFactsJSON))
	require.NoError(t, err)
	require.Equal(t, model.StatusContractCompleted, outcome.State.Status)

	_, err = env.engine.Start(ctx, testBundle(cleanFactsJSON))
	assert.ErrorIs(t, err, common.ErrAlreadyTerminal)
}

func TestStartMissingDocument(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})

	bundle := testBundle(cleanFactsJSON)
	delete(bundle.Documents, model.DocumentSalarySlip)

	outcome, err := env.engine.Start(context.Background(), bundle)
	require.NoError(t, err)
	require.Nil(t, outcome.Suspended)
	assert.Equal(t, model.StatusCollectionFailed, outcome.State.Status)
	assert.Equal(t, "failed", outcome.State.DataCollectionStatus)

	record, err := env.store.GetFinalRecord(context.Background(), "APPL_372F03A6")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollectionFailed, record.Status)
}

func TestStartCorruptCreditReport(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})

	bundle := testBundle(cleanFactsJSON)
	bundle.Documents[model.DocumentCreditReport] = []byte("%PDF-1.4\nbroken")

	outcome, err := env.engine.Start(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollectionFailed, outcome.State.Status)
}

func TestStartComplianceRejection(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})

	bundle := testBundle(cleanFactsJSON)
	bundle.Personal.MonthlyIncome = 2500
	bundle.Documents[model.DocumentSalarySlip] = []byte("2025-03-01 代发工资 2,500.00\n")

	outcome, err := env.engine.Start(context.Background(), bundle)
	require.NoError(t, err)
	require.Nil(t, outcome.Suspended)
	assert.Equal(t, model.DecisionRejected, outcome.State.Compliance.Status)
	assert.Equal(t, model.DecisionRejected, outcome.State.Decision)
	assert.Equal(t, model.StatusDecisionRejected, outcome.State.Status)
}

func TestStartBlacklistedApplicantSuspends(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	require.NoError(t, env.store.AddBlacklistEntry(ctx, "110101199003074258", "prior fraud"))

	// Blacklist hit plus an implausible income lands in the manual review band.
	bundle := testBundle(cleanFactsJSON)
	bundle.Personal.MonthlyIncome = 200000
	bundle.Documents[model.DocumentSalarySlip] = []byte("2025-03-01 代发工资 200,000.00\n")

	outcome, err := env.engine.Start(ctx, bundle)
	require.NoError(t, err)
	require.NotNil(t, outcome.Suspended)
	assert.True(t, outcome.State.Fraud.IsSuspicious)
	assert.Equal(t, model.DecisionHumanReview, outcome.State.Fraud.Status)
	assert.Equal(t, model.DecisionHumanReview, outcome.State.Decision)
}

func TestSuspendAndResumeApproved(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	// One overdue drops the score into the manual review band.
	outcome, err := env.engine.Start(ctx, testBundle(midFactsJSON))
	require.NoError(t, err)
	require.NotNil(t, outcome.Suspended)

	assert.Equal(t, model.DecisionHumanReview, outcome.State.Decision)
	assert.Equal(t, 80, outcome.Suspended.Credit.Score)
	assert.True(t, outcome.Suspended.CollectionDone)
	threadID := outcome.Suspended.ThreadID
	require.NotEmpty(t, threadID)

	// No terminal record yet.
	_, err = env.store.GetFinalRecord(ctx, "APPL_372F03A6")
	assert.ErrorIs(t, err, common.ErrNotFound)

	resumed, err := env.engine.Resume(ctx, threadID, model.ResumePayload{
		Status:   model.DecisionApproved,
		Feedback: "income documents verified by phone",
	})
	require.NoError(t, err)
	require.Nil(t, resumed.Suspended)
	assert.Equal(t, model.StatusContractCompleted, resumed.State.Status)
	assert.Equal(t, model.DecisionApproved, resumed.State.HumanApproval)
	assert.Equal(t, "income documents verified by phone", resumed.State.HumanFeedback)

	record, err := env.store.GetFinalRecord(ctx, "APPL_372F03A6")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContractCompleted, record.Status)
}

func TestSuspendAndResumeRejected(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(midFactsJSON))
	require.NoError(t, err)
	require.NotNil(t, outcome.Suspended)

	resumed, err := env.engine.Resume(ctx, outcome.Suspended.ThreadID, model.ResumePayload{
		Status:   model.DecisionRejected,
		Feedback: "income source unclear",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusHumanRejected, resumed.State.Status)
	assert.Nil(t, resumed.State.Contract, "no contract for a rejected application")
}

func TestResumeProtocol(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(midFactsJSON))
	require.NoError(t, err)
	require.NotNil(t, outcome.Suspended)
	threadID := outcome.Suspended.ThreadID

	t.Run("invalid status", func(t *testing.T) {
		_, err := env.engine.Resume(ctx, threadID, model.ResumePayload{Status: "maybe"})
		assert.ErrorIs(t, err, common.ErrResumeProtocol)
	})

	t.Run("unknown thread", func(t *testing.T) {
		_, err := env.engine.Resume(ctx, "no-such-thread", model.ResumePayload{Status: model.DecisionApproved})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("duplicate verdict is idempotent", func(t *testing.T) {
		first, err := env.engine.Resume(ctx, threadID, model.ResumePayload{Status: model.DecisionApproved})
		require.NoError(t, err)
		assert.Equal(t, model.StatusContractCompleted, first.State.Status)

		again, err := env.engine.Resume(ctx, threadID, model.ResumePayload{Status: model.DecisionApproved})
		require.NoError(t, err)
		require.Nil(t, again.Suspended)
		assert.Equal(t, model.StatusContractCompleted, again.State.Status)
	})

	t.Run("conflicting verdict after completion", func(t *testing.T) {
		_, err := env.engine.Resume(ctx, threadID, model.ResumePayload{Status: model.DecisionRejected})
		assert.ErrorIs(t, err, common.ErrNotSuspended)
	})
}

func TestReviewRevisionLoopConverges(t *testing.T) {
	clauses := append(passingClauses(), insuranceClause())
	env := newTestEnv(t, clauses, contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(cleanFactsJSON))
	require.NoError(t, err)
	require.Nil(t, outcome.Suspended)

	state := outcome.State
	assert.Equal(t, model.StatusContractCompleted, state.Status)
	assert.Equal(t, 1, state.ReviseAttempts, "one revision round covered the missing clause")
	assert.Equal(t, model.StageSuccess, state.ModifyStatus)
	assert.Equal(t, model.ReviewApproved, state.ReviewStatus)
	assert.Contains(t, state.ContractDraft, "Addendum - Supplementary Provisions")
	assert.Contains(t, state.ContractDraft, "REG-003")
}

func TestReviewEscalatesAfterMaxRevisions(t *testing.T) {
	clauses := append(passingClauses(), insuranceClause())
	env := newTestEnv(t, clauses, noopReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(cleanFactsJSON))
	require.NoError(t, err)
	require.Nil(t, outcome.Suspended)

	state := outcome.State
	assert.Equal(t, model.StatusReviewEscalated, state.Status)
	assert.Equal(t, maxReviseAttempts, state.ReviseAttempts)
	assert.Equal(t, model.ReviewRejected, state.ReviewStatus)

	record, err := env.store.GetFinalRecord(ctx, "APPL_372F03A6")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewEscalated, record.Status)
}

func TestCheckpointWrittenAtSuspension(t *testing.T) {
	env := newTestEnv(t, passingClauses(), contract.AppendingReviser{})
	ctx := context.Background()

	outcome, err := env.engine.Start(ctx, testBundle(midFactsJSON))
	require.NoError(t, err)
	require.NotNil(t, outcome.Suspended)

	state, pending, err := env.store.NewCheckpointStore().Load(ctx, outcome.Suspended.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "APPL_372F03A6", state.ApplicationID)
	assert.Equal(t, model.DecisionHumanReview, pending.Decision)
	assert.Equal(t, 80, pending.Credit.Score)
}
