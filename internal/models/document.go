package models

import "time"

// Document is the metadata record kept for every successfully uploaded file.
// The record is immutable after creation and the whole table is cleared on
// process startup, so nothing here survives a restart.
type Document struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Filename  string    `gorm:"not null;size:255" bson:"filename" json:"filename"`
	SavedName string    `gorm:"not null;size:255" bson:"saved_name" json:"saved_name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
