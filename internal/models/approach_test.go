package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *ApproachRecord {
	lat := -23.55
	return &ApproachRecord{
		ID:       "r1",
		Date:     "2024-01-01T10:00:00Z",
		Latitude: &lat,
		People: []PersonEntry{
			{
				ID:         "p1",
				Name:       "João Silva",
				MotherName: "Maria Silva",
				RG:         "111",
				CPF:        "222",
				Photos:     []Photo{{URL: "a"}, {URL: "b", IsProfile: true}},
				Vehicle:    &Vehicle{Plate: "ABC1D23"},
			},
			{ID: "p2", Name: "Pedro Lima"},
			{Name: "No Id"},
		},
	}
}

func TestSyncMirror_CopiesPrimary(t *testing.T) {
	r := sampleRecord()
	r.SyncMirror()

	assert.Equal(t, "João Silva", r.Name)
	assert.Equal(t, "Maria Silva", r.MotherName)
	assert.Equal(t, "111", r.RG)
	assert.Equal(t, "222", r.CPF)
	assert.Equal(t, "b", r.ImageURL)
	assert.Equal(t, []string{"p2"}, r.Companions)
}

func TestSyncMirror_FollowsPrimaryEdits(t *testing.T) {
	r := sampleRecord()
	r.SyncMirror()

	r.People[0].Name = "João da Silva"
	require.NoError(t, r.People[0].SetProfilePhoto(0))
	r.SyncMirror()

	assert.Equal(t, "João da Silva", r.Name)
	assert.Equal(t, "a", r.ImageURL)
}

func TestSyncMirror_NoPeopleClears(t *testing.T) {
	r := &ApproachRecord{ID: "r", Name: "stale", Companions: []string{"x"}}
	r.SyncMirror()

	assert.Empty(t, r.Name)
	assert.Nil(t, r.Companions)
}

func TestPersonIndexAndCompanion(t *testing.T) {
	r := sampleRecord()
	r.SyncMirror()

	assert.Equal(t, 1, r.PersonIndex("p2"))
	assert.Equal(t, -1, r.PersonIndex("zz"))
	assert.True(t, r.HasCompanion("p2"))
	assert.False(t, r.HasCompanion("p1"))
}

func TestClone_IsDeep(t *testing.T) {
	r := sampleRecord()
	r.SyncMirror()
	c := r.Clone()

	c.People[0].Name = "changed"
	c.People[0].Photos[0].URL = "changed"
	c.People[0].Vehicle.Plate = "changed"
	*c.Latitude = 0
	c.Companions[0] = "changed"

	assert.Equal(t, "João Silva", r.People[0].Name)
	assert.Equal(t, "a", r.People[0].Photos[0].URL)
	assert.Equal(t, "ABC1D23", r.People[0].Vehicle.Plate)
	assert.Equal(t, -23.55, *r.Latitude)
	assert.Equal(t, "p2", r.Companions[0])
}

func TestMergeIdentity_KeepsVehicleAndNotes(t *testing.T) {
	p := PersonEntry{
		ID:      "p1",
		Name:    "Ana",
		Photos:  []Photo{{URL: "a"}},
		Vehicle: &Vehicle{Plate: "AAA1111"},
		Notes:   "nervous",
	}

	p.MergeIdentity(PersonEntry{ID: "other", Name: "Ana Maria", CPF: "999", Address: Address{Street: "Rua A"}})
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Ana Maria", p.Name)
	assert.Equal(t, "999", p.CPF)
	assert.Equal(t, "Rua A", p.Address.Street)
	assert.Equal(t, "AAA1111", p.Vehicle.Plate)
	assert.Equal(t, "nervous", p.Notes)
	assert.Equal(t, []Photo{{URL: "a"}}, p.Photos)

	edit := PersonEntry{Name: "Ana Maria", Photos: []Photo{{URL: "b", IsProfile: true}}}
	p.MergeIdentity(edit)
	edit.Photos[0].URL = "changed"
	assert.Equal(t, []Photo{{URL: "b", IsProfile: true}}, p.Photos)
}
