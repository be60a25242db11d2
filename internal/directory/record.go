// Package directory loads the representative directory from a CSV resource
// and indexes the entries a visitor may write to.
package directory

import "strings"

// Column names of the directory resource.
const (
	ColumnContact    = "Contact"
	ColumnElectorate = "Electorate"
	ColumnParty      = "Party"
	ColumnJobTitle   = "Job Title"
	ColumnEmail      = "Parliament Email"
)

// JobTitleListMember marks non-geographic list-only entries.
const JobTitleListMember = "List Member"

// RequiredColumns must be present in the header row.
var RequiredColumns = []string{ColumnContact, ColumnEmail}

// Record maps a column name to its value for one representative. Records
// are never modified after parsing.
type Record map[string]string

// Get returns the value of column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return r[column]
}

func (r Record) Name() string       { return r[ColumnContact] }
func (r Record) Electorate() string { return r[ColumnElectorate] }
func (r Record) Party() string      { return r[ColumnParty] }
func (r Record) JobTitle() string   { return r[ColumnJobTitle] }
func (r Record) Email() string      { return r[ColumnEmail] }

// Eligible reports whether the record is a geographic representative: it
// has a job title that does not mention list membership, and an electorate.
func (r Record) Eligible() bool {
	title := strings.TrimSpace(r.JobTitle())
	return title != "" &&
		!strings.Contains(title, JobTitleListMember) &&
		strings.TrimSpace(r.Electorate()) != ""
}
