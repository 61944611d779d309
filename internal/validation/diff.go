package validation

// Severity ranks a diff entry. Only error-severity entries make a payload
// invalid; warnings and info entries are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category is a machine-readable tag set at the point a check fails. The
// recovery advisor switches on this closed enum rather than matching error
// text, so validator wording can change without breaking recovery.
type Category string

const (
	CategoryRequiredField        Category = "REQUIRED_FIELD"
	CategoryMalformedField       Category = "MALFORMED_FIELD"
	CategoryAccountNotFound      Category = "ACCOUNT_NOT_FOUND"
	CategoryAccountArchived      Category = "ACCOUNT_ARCHIVED"
	CategoryAccountTypeMismatch  Category = "ACCOUNT_TYPE_MISMATCH"
	CategoryTaxTypeInvalid       Category = "TAX_TYPE_INVALID"
	CategoryContactNotFound      Category = "CONTACT_NOT_FOUND"
	CategoryContactArchived      Category = "CONTACT_ARCHIVED"
	CategoryTemporalOrder        Category = "TEMPORAL_ORDER"
	CategoryAmountExceedsBalance Category = "AMOUNT_EXCEEDS_BALANCE"
	CategoryReferenceNotFound    Category = "REFERENCE_NOT_FOUND"
)

// Diff is one field-level finding.
type Diff struct {
	Field    string   `json:"field"`
	Issue    string   `json:"issue"`
	Category Category `json:"category"`
	Expected string   `json:"expected,omitempty"`
	Received string   `json:"received,omitempty"`
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one payload against one snapshot.
// Invariant: Valid is true iff Errors is empty; Score is deterministic for
// identical inputs and never increases when an error entry is added.
type Result struct {
	Valid    bool     `json:"valid"`
	Score    float64  `json:"score"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Diff     []Diff   `json:"diff"`
}

// Fixed scoring penalties. The score is a dimensionless completeness
// measure used for ranking and telemetry only; nothing inside the engine
// branches on it.
const (
	errorPenalty   = 0.25
	warningPenalty = 0.05
)

// collector accumulates diff entries in check order, so repeated
// validation of the same input yields identical results.
type collector struct {
	diffs []Diff
}

func (c *collector) add(d Diff) {
	c.diffs = append(c.diffs, d)
}

func (c *collector) errorf(field string, category Category, issue string) {
	c.add(Diff{Field: field, Issue: issue, Category: category, Severity: SeverityError})
}

// hasError reports whether a given field already carries an error entry.
// Structural failures short-circuit contextual checks on the same field.
func (c *collector) hasError(field string) bool {
	for _, d := range c.diffs {
		if d.Field == field && d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// result assembles the final Result: error/warning strings in diff order,
// score starting at 1.0 with a fixed penalty per entry, floored at zero.
func (c *collector) result() *Result {
	res := &Result{
		Errors:   []string{},
		Warnings: []string{},
		Diff:     c.diffs,
	}
	if res.Diff == nil {
		res.Diff = []Diff{}
	}

	score := 1.0
	for _, d := range c.diffs {
		switch d.Severity {
		case SeverityError:
			res.Errors = append(res.Errors, d.Issue)
			score -= errorPenalty
		case SeverityWarning:
			res.Warnings = append(res.Warnings, d.Issue)
			score -= warningPenalty
		}
	}
	if score < 0 {
		score = 0
	}
	res.Score = score
	res.Valid = len(res.Errors) == 0
	return res
}
