package models

// Address is a person's residence as recorded in one approach.
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Complement   string `json:"complement,omitempty"`
}

type Photo struct {
	URL       string `json:"url"`
	IsProfile bool   `json:"isProfile"`
}

type Vehicle struct {
	Plate        string `json:"plate,omitempty"`
	BrandModel   string `json:"brandModel,omitempty"`
	Color        string `json:"color,omitempty"`
	Observations string `json:"observations,omitempty"`
}

// PersonEntry is a person's data as it appeared within one approach record.
// ID is reused by callers when the same person is approached again; the
// store never deduplicates.
type PersonEntry struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	MotherName string   `json:"motherName,omitempty"`
	FatherName string   `json:"fatherName,omitempty"`
	BirthDate  string   `json:"birthDate,omitempty"`
	RG         string   `json:"rg,omitempty"`
	CPF        string   `json:"cpf,omitempty"`
	Address    Address  `json:"address"`
	Photos     []Photo  `json:"photos,omitempty"`
	Vehicle    *Vehicle `json:"vehicle,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// ApproachRecord is one logged stop. The Name..ImageURL and Companions
// fields mirror People and are derived by SyncMirror.
type ApproachRecord struct {
	ID           string        `json:"id" validate:"required"`
	Date         string        `json:"date" validate:"required"`
	Location     string        `json:"location,omitempty"`
	Address      string        `json:"address,omitempty"`
	Latitude     *float64      `json:"latitude,omitempty"`
	Longitude    *float64      `json:"longitude,omitempty"`
	People       []PersonEntry `json:"people" validate:"required|minLen:1"`
	Name         string        `json:"name"`
	MotherName   string        `json:"motherName"`
	RG           string        `json:"rg"`
	CPF          string        `json:"cpf"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Companions   []string      `json:"companions,omitempty"`
	Observations string        `json:"observations,omitempty"`
}

// Primary returns the first embedded person, the subject of the approach.
func (r *ApproachRecord) Primary() *PersonEntry {
	if len(r.People) == 0 {
		return nil
	}
	return &r.People[0]
}

// SyncMirror rewrites the top-level convenience fields from People.
func (r *ApproachRecord) SyncMirror() {
	primary := r.Primary()
	if primary == nil {
		r.Name, r.MotherName, r.RG, r.CPF, r.ImageURL = "", "", "", "", ""
		r.Companions = nil
		return
	}

	r.Name = primary.Name
	r.MotherName = primary.MotherName
	r.RG = primary.RG
	r.CPF = primary.CPF
	r.ImageURL = ""
	if p := primary.ProfilePhoto(); p != nil {
		r.ImageURL = p.URL
	}

	r.Companions = nil
	for _, companion := range r.People[1:] {
		if companion.ID != "" {
			r.Companions = append(r.Companions, companion.ID)
		}
	}
}

// PersonIndex returns the position of the person with the given id, or -1.
func (r *ApproachRecord) PersonIndex(personID string) int {
	for i := range r.People {
		if r.People[i].ID == personID {
			return i
		}
	}
	return -1
}

// HasCompanion reports whether id is listed in Companions.
func (r *ApproachRecord) HasCompanion(id string) bool {
	for _, c := range r.Companions {
		if c == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (r *ApproachRecord) Clone() *ApproachRecord {
	out := *r
	if r.Latitude != nil {
		lat := *r.Latitude
		out.Latitude = &lat
	}
	if r.Longitude != nil {
		lng := *r.Longitude
		out.Longitude = &lng
	}
	if r.Companions != nil {
		out.Companions = append([]string(nil), r.Companions...)
	}
	if r.People != nil {
		out.People = make([]PersonEntry, len(r.People))
		for i := range r.People {
			out.People[i] = r.People[i].Clone()
		}
	}
	return &out
}

func (p PersonEntry) Clone() PersonEntry {
	out := p
	if p.Photos != nil {
		out.Photos = append([]Photo(nil), p.Photos...)
	}
	if p.Vehicle != nil {
		v := *p.Vehicle
		out.Vehicle = &v
	}
	return out
}

// MergeIdentity copies the identity fields of edit onto p. Vehicle and notes
// belong to a single approach and are kept; photos are replaced only when
// edit carries some.
func (p *PersonEntry) MergeIdentity(edit PersonEntry) {
	p.Name = edit.Name
	p.MotherName = edit.MotherName
	p.FatherName = edit.FatherName
	p.BirthDate = edit.BirthDate
	p.RG = edit.RG
	p.CPF = edit.CPF
	p.Address = edit.Address
	if edit.Photos != nil {
		p.Photos = append([]Photo(nil), edit.Photos...)
	}
}
