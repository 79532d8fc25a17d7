package file

import (
	"time"

	"github.com/google/uuid"
)

// Type is the content category derived from a filename extension.
type Type string

const (
	TypeDocument Type = "document"
	TypeImage    Type = "image"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeOther    Type = "other"
)

// Valid reports whether t is one of the fixed categories.
func (t Type) Valid() bool {
	switch t {
	case TypeDocument, TypeImage, TypeVideo, TypeAudio, TypeOther:
		return true
	}
	return false
}

// Metadata is the document describing one stored file. It must never
// reference an object that does not exist; the upload saga enforces that.
type Metadata struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	Type      Type      `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
	URL       string    `json:"url"`
	OwnerID   uuid.UUID `json:"owner_id"`
	AccountID uuid.UUID `json:"account_id"`
	Users     []string  `json:"users"`
	ObjectID  string    `json:"object_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ObjectKey returns the object-storage key referencing this file's blob.
func (m Metadata) ObjectKey() string {
	return m.OwnerID.String() + "/" + m.ObjectID
}

// Accessor identifies the caller for read-access checks: a file is visible
// iff the caller owns it or their email is on its share list.
type Accessor struct {
	UserID uuid.UUID
	Email  string
}
