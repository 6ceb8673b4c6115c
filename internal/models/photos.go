package models

import (
	"errors"
	"fmt"
)

var (
	ErrPhotoIndex = errors.New("photo index out of range")
	ErrPhotoLimit = errors.New("photo limit reached")
)

// ProfilePhoto returns the photo flagged as profile, or nil.
func (p *PersonEntry) ProfilePhoto() *Photo {
	for i := range p.Photos {
		if p.Photos[i].IsProfile {
			return &p.Photos[i]
		}
	}
	return nil
}

// AddPhoto appends a photo. The first photo of an empty list (or of a list
// with no profile yet) becomes the profile photo. max <= 0 means unlimited.
func (p *PersonEntry) AddPhoto(url string, max int) error {
	if max > 0 && len(p.Photos) >= max {
		return fmt.Errorf("%w: %d", ErrPhotoLimit, max)
	}
	p.Photos = append(p.Photos, Photo{URL: url, IsProfile: p.ProfilePhoto() == nil})
	return nil
}

// SetProfilePhoto flags photo k as profile and clears every other flag.
func (p *PersonEntry) SetProfilePhoto(k int) error {
	if k < 0 || k >= len(p.Photos) {
		return fmt.Errorf("%w: %d", ErrPhotoIndex, k)
	}
	for i := range p.Photos {
		p.Photos[i].IsProfile = i == k
	}
	return nil
}

// RemovePhoto drops photo k. Removing the profile photo promotes the first
// remaining one.
func (p *PersonEntry) RemovePhoto(k int) error {
	if k < 0 || k >= len(p.Photos) {
		return fmt.Errorf("%w: %d", ErrPhotoIndex, k)
	}
	p.Photos = append(p.Photos[:k:k], p.Photos[k+1:]...)
	if len(p.Photos) > 0 && p.ProfilePhoto() == nil {
		p.Photos[0].IsProfile = true
	}
	return nil
}
