package services

import (
	"approachlog/internal/models"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// fold normalizes s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateAfter reports whether record date a is strictly later than b. Dates
// that both parse compare as instants, anything else compares as text.
func dateAfter(a, b string) bool {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		return ta.After(tb)
	}
	return a > b
}

// FindUniquePeople collapses every embedded person into one entry per
// case-folded name, keeping the entry from the most recent record. Equal
// dates keep the entry seen first. Entries are returned in the order their
// name was first seen and filtered by query: a folded substring of the name,
// or an exact rg or cpf.
func FindUniquePeople(records []models.ApproachRecord, query string) []models.PersonEntry {
	type latest struct {
		person models.PersonEntry
		date   string
	}

	byName := make(map[string]*latest)
	var order []string
	for i := range records {
		r := &records[i]
		for j := range r.People {
			p := r.People[j]
			if p.Name == "" {
				continue
			}
			key := fold(p.Name)
			cur, ok := byName[key]
			if !ok {
				byName[key] = &latest{person: p, date: r.Date}
				order = append(order, key)
				continue
			}
			if dateAfter(r.Date, cur.date) {
				cur.person, cur.date = p, r.Date
			}
		}
	}

	q := fold(query)
	result := make([]models.PersonEntry, 0, len(order))
	for _, key := range order {
		p := byName[key].person
		if strings.Contains(key, q) || (query != "" && (p.RG == query || p.CPF == query)) {
			result = append(result, p.Clone())
		}
	}
	return result
}

// Profile is everything known about one person id.
type Profile struct {
	Person     models.PersonEntry      `json:"person"`
	Approaches []models.ApproachRecord `json:"approaches"`
}

// PersonProfile returns the latest entry for personID and every record that
// embeds it or lists it as a companion, newest first. It returns nil when no
// record embeds the id.
func PersonProfile(records []models.ApproachRecord, personID string) *Profile {
	var (
		found    bool
		person   models.PersonEntry
		date     string
		involved []models.ApproachRecord
	)

	for i := range records {
		r := &records[i]
		idx := r.PersonIndex(personID)
		if idx >= 0 {
			if !found || dateAfter(r.Date, date) {
				person, date, found = r.People[idx], r.Date, true
			}
		}
		if idx >= 0 || r.HasCompanion(personID) {
			involved = append(involved, *r)
		}
	}
	if !found {
		return nil
	}

	return &Profile{
		Person:     person.Clone(),
		Approaches: SortByDateDesc(involved),
	}
}

// SortByDateDesc returns a copy of records ordered newest first. Records with
// equal dates keep their relative order.
func SortByDateDesc(records []models.ApproachRecord) []models.ApproachRecord {
	sorted := make([]models.ApproachRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dateAfter(sorted[i].Date, sorted[j].Date)
	})
	return sorted
}
