package domain

import "time"

// Entry is a user-owned record with an optional image attachment.
type Entry struct {
	ID               int64     `json:"id" bson:"_id"`
	Timestamp        string    `json:"waktu" bson:"timestamp"`
	Title            string    `json:"judul" bson:"title"`
	Description      string    `json:"deskripsi" bson:"description"`
	AttachmentRef    string    `json:"imageid,omitempty" bson:"attachment_ref,omitempty"`
	AttachmentURL    string    `json:"imageurl,omitempty" bson:"attachment_url,omitempty"`
	OwnerUsername    string    `json:"owner" bson:"owner_username"`
	OwnerDisplayName string    `json:"ownername" bson:"owner_display_name"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// HasAttachment reports whether the entry currently references a blob.
func (e *Entry) HasAttachment() bool {
	return e.AttachmentRef != ""
}

// DisplayOwner is the name shown for the entry's owner.
func (e *Entry) DisplayOwner() string {
	if e.OwnerDisplayName != "" {
		return e.OwnerDisplayName
	}
	return e.OwnerUsername
}

// Attachment addresses a stored blob together with its public view URL.
type Attachment struct {
	Ref string
	URL string
}
