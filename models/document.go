package models

import "time"

// Document is an uploaded file shared inside a provider relationship.
type Document struct {
	ID         string    `bson:"id" json:"id"`
	OwnerID    string    `bson:"ownerId" json:"ownerId"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	Name       string    `bson:"name" json:"name"`
	URL        string    `bson:"url" json:"url"`
	PublicID   string    `bson:"publicId" json:"publicId"`
	SizeBytes  int64     `bson:"sizeBytes" json:"sizeBytes"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// SizeMb returns the size in (fractional) megabytes.
func (d Document) SizeMb() float64 {
	return float64(d.SizeBytes) / (1024 * 1024)
}
