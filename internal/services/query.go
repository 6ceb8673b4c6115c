package services

import (
	"approachlog/internal/models"
	"strings"
)

// Predicate selects records in Search.
type Predicate func(r *models.ApproachRecord) bool

// Search returns the records matching pred, in input order.
func Search(records []models.ApproachRecord, pred Predicate) []models.ApproachRecord {
	result := make([]models.ApproachRecord, 0)
	for i := range records {
		if pred == nil || pred(&records[i]) {
			result = append(result, records[i])
		}
	}
	return result
}

// MatchText matches records whose searchable text contains q, ignoring case.
// An empty query matches everything.
func MatchText(q string) Predicate {
	needle := fold(strings.TrimSpace(q))
	return func(r *models.ApproachRecord) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(fold(searchText(r)), needle)
	}
}

func searchText(r *models.ApproachRecord) string {
	parts := []string{r.Name, r.MotherName, r.RG, r.CPF, r.Address, r.Observations}
	parts = append(parts, companionNames(r)...)
	parts = append(parts, r.Location)
	return strings.Join(parts, " ")
}

// companionNames lists the names of people[1:] followed by the raw
// companions values.
func companionNames(r *models.ApproachRecord) []string {
	var names []string
	if len(r.People) > 1 {
		for _, p := range r.People[1:] {
			names = append(names, p.Name)
		}
	}
	return append(names, r.Companions...)
}

// Filters is a match-all structured search. Empty fields are ignored.
type Filters struct {
	Name         string `json:"name,omitempty"`
	RG           string `json:"rg,omitempty"`
	CPF          string `json:"cpf,omitempty"`
	Location     string `json:"location,omitempty"`
	Observations string `json:"observations,omitempty"`
	VehiclePlate string `json:"vehiclePlate,omitempty"`
	Companion    string `json:"companion,omitempty"`
}

func (f Filters) IsZero() bool {
	return f == Filters{}
}

func (f Filters) Match(r *models.ApproachRecord) bool {
	var names, rgs, cpfs, plates []string
	for _, p := range r.People {
		names = append(names, p.Name)
		rgs = append(rgs, p.RG)
		cpfs = append(cpfs, p.CPF)
		if p.Vehicle != nil {
			plates = append(plates, p.Vehicle.Plate)
		}
	}

	return containsAny(f.Name, append(names, r.Name)) &&
		containsAny(f.RG, append(rgs, r.RG)) &&
		containsAny(f.CPF, append(cpfs, r.CPF)) &&
		containsAny(f.Location, []string{r.Location, r.Address}) &&
		containsAny(f.Observations, []string{r.Observations}) &&
		containsAny(f.VehiclePlate, plates) &&
		containsAny(f.Companion, companionNames(r))
}

// containsAny reports whether needle is a folded substring of any value.
// An empty needle always matches.
func containsAny(needle string, values []string) bool {
	needle = fold(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(fold(v), needle) {
			return true
		}
	}
	return false
}

// RelatedTo returns every record except excludeRecordID that embeds personID
// or lists it as a companion, in input order.
func RelatedTo(records []models.ApproachRecord, personID, excludeRecordID string) []models.ApproachRecord {
	return Search(records, func(r *models.ApproachRecord) bool {
		if r.ID == excludeRecordID {
			return false
		}
		return r.PersonIndex(personID) >= 0 || r.HasCompanion(personID)
	})
}
