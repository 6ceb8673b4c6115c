package providers

import "github.com/google/uuid"

// IDProviderInterface hands out identifiers for new records and people.
// Uniqueness is assumed, not checked.
type IDProviderInterface interface {
	NewID() string
}

type UUIDProvider struct{}

func (p *UUIDProvider) NewID() string {
	return uuid.NewString()
}

func NewIDProvider() IDProviderInterface {
	return &UUIDProvider{}
}
