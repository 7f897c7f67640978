package ledger

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ArionMiles/spendview/pkg/api"
)

// personalName finds "Имя Ф." anywhere in a description. The leading group
// stands in for a Unicode word boundary, which Go's \b (ASCII only) cannot
// express for Cyrillic. The (?i) flag folds the character classes as well, so
// "иван с." matches just like "Иван С.".
var personalName = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])[А-ЯЁ][а-яё]+[\s\p{Z}][А-ЯЁ]\.`)

// IsPersonalName reports whether description mentions a person as a first
// name followed by an initial.
func IsPersonalName(description string) bool {
	return personalName.MatchString(description)
}

// TransfersToIndividuals returns, in source order, the transactions whose
// category contains keyword (ignoring case) and whose description names a
// person.
func TransfersToIndividuals(txns []api.Transaction, keyword string) []api.Transaction {
	lower := cases.Lower(language.Und)
	needle := lower.String(keyword)

	out := make([]api.Transaction, 0)
	for _, t := range txns {
		if !strings.Contains(lower.String(t.Category), needle) {
			continue
		}
		if IsPersonalName(t.Description) {
			out = append(out, t)
		}
	}
	return out
}

// MarshalTransactions renders txns as an indented JSON array with Cyrillic
// text left unescaped. A nil slice renders as [].
func MarshalTransactions(txns []api.Transaction) (string, error) {
	if txns == nil {
		txns = []api.Transaction{}
	}
	b, err := api.MarshalIndent(txns, "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transactions: %w", err)
	}
	return string(b), nil
}
