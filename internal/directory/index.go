package directory

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Representative is an eligible directory entry ready for selection.
type Representative struct {
	Record Record
	Label  string
}

// Email is the selection value of the representative.
func (r Representative) Email() string {
	return r.Record.Email()
}

// Index holds the eligible representatives sorted by name.
type Index struct {
	reps    []Representative
	byEmail map[string]int
}

// NewIndex keeps the eligible records and sorts them by contact name using
// English collation. The first record wins when two share an email.
func NewIndex(records []Record) *Index {
	reps := make([]Representative, 0, len(records))
	for _, rec := range records {
		if !rec.Eligible() {
			continue
		}
		reps = append(reps, Representative{Record: rec, Label: label(rec)})
	}

	c := collate.New(language.English)
	sort.SliceStable(reps, func(i, j int) bool {
		return c.CompareString(reps[i].Record.Name(), reps[j].Record.Name()) < 0
	})

	byEmail := make(map[string]int, len(reps))
	for i, rep := range reps {
		key := emailKey(rep.Email())
		if key == "" {
			continue
		}
		if _, dup := byEmail[key]; !dup {
			byEmail[key] = i
		}
	}
	return &Index{reps: reps, byEmail: byEmail}
}

func label(rec Record) string {
	return fmt.Sprintf("%s (%s - %s)", rec.Name(), rec.Electorate(), rec.Party())
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// All returns the representatives in presentation order.
func (ix *Index) All() []Representative {
	return ix.reps
}

func (ix *Index) Len() int {
	return len(ix.reps)
}

// Lookup finds a representative by email, ignoring case.
func (ix *Index) Lookup(email string) (Representative, bool) {
	i, ok := ix.byEmail[emailKey(email)]
	if !ok {
		return Representative{}, false
	}
	return ix.reps[i], true
}
