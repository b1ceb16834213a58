package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/apexfin/loanflow/internal/model"
)

// EmbeddedFactsParser implements service.CreditReportParser for reports that
// carry their structured facts as an embedded JSON object, the convention
// used by the report supplier's export and by test fixtures. Interpreting a
// scanned report is an external concern.
type EmbeddedFactsParser struct{}

// ParseReport finds the last JSON object in the report and decodes the
// scoring facts from it.
func (EmbeddedFactsParser) ParseReport(_ context.Context, report []byte) (*model.CreditReportFacts, error) {
	start := bytes.LastIndexByte(report, '{')
	for start >= 0 {
		end := bytes.IndexByte(report[start:], '}')
		if end < 0 {
			return nil, fmt.Errorf("no structured facts found in credit report")
		}
		blob := report[start : start+end+1]

		var facts model.CreditReportFacts
		if err := json.Unmarshal(blob, &facts); err == nil {
			return &facts, nil
		}
		start = bytes.LastIndexByte(report[:start], '{')
	}
	return nil, fmt.Errorf("no structured facts found in credit report")
}
