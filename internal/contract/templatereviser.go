package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/apexfin/loanflow/internal/model"
)

const addendumHeading = "Addendum - Supplementary Provisions"

// AppendingReviser implements service.TemplateReviser by appending the
// revision instructions as supplementary provisions, leaving the existing
// articles and template actions untouched. It stands in for an NL template
// editor; every revision is applied in one pass.
type AppendingReviser struct{}

// ReviseTemplate appends one supplementary provision per revision item. The
// addendum section is created on first use and extended afterwards, so
// repeated revision rounds accumulate rather than duplicate the heading.
func (AppendingReviser) ReviseTemplate(_ context.Context, template string, revisions []model.RevisionItem) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("template is empty")
	}
	if len(revisions) == 0 {
		return template, nil
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(template, "\n"))
	b.WriteString("\n")
	if !strings.Contains(template, addendumHeading) {
		b.WriteString("\n" + addendumHeading + "\n")
	}
	for _, rev := range revisions {
		fmt.Fprintf(&b, "\n(%s %s)\n%s\n", rev.CheckID, rev.CheckTitle, rev.RevisionContent)
	}
	return b.String(), nil
}
