package models

import (
	"time"
)

const (
	RoleNormal = "Normal"
	RoleAdmin  = "Admin"
)

type User struct {
	ID            string       `json:"id" bson:"_id"`
	UserName      string       `json:"userName" bson:"userName"`
	LastName      string       `json:"lastName" bson:"lastName"`
	Email         string       `json:"email" bson:"email"`
	PasswordHash  string       `json:"passwordHash" bson:"passwordHash"`
	Role          string       `json:"role" bson:"role"`
	PasswordReset *ResetSecret `json:"passwordReset,omitempty" bson:"passwordReset,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt" bson:"updatedAt"`
	Version       int64        `json:"version" bson:"version"`
}

// ResetSecret is the single reset slot of a user. Only the SHA-256 hash of
// the secret is stored.
type ResetSecret struct {
	SecretHash string    `json:"secretHash" bson:"secretHash"`
	ExpiresAt  time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Expired reports whether the secret is no longer usable at now.
func (r *ResetSecret) Expired(now time.Time) bool {
	return now.UTC().After(r.ExpiresAt)
}

func (u *User) DocumentID() string         { return u.ID }
func (u *User) DocumentVersion() int64     { return u.Version }
func (u *User) SetDocumentVersion(v int64) { u.Version = v }

type Publication struct {
	ID          string       `json:"id" bson:"_id"`
	Title       string       `json:"title" bson:"title"`
	Content     string       `json:"content" bson:"content"`
	UserID      string       `json:"userId" bson:"userId"`
	ParentID    string       `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
	Version     int64        `json:"version" bson:"version"`

	// ChildPublications is filled only when a hierarchy is built at read time.
	ChildPublications []Publication `json:"childPublications,omitempty" bson:"-"`
}

func (p *Publication) DocumentID() string         { return p.ID }
func (p *Publication) DocumentVersion() int64     { return p.Version }
func (p *Publication) SetDocumentVersion(v int64) { p.Version = v }

// IsRoot reports whether the publication has no parent.
func (p *Publication) IsRoot() bool {
	return p.ParentID == ""
}

type Attachment struct {
	AttachmentID string    `json:"attachmentId" bson:"attachmentId"`
	ObjectName   string    `json:"objectName" bson:"objectName"`
	URL          string    `json:"url" bson:"url"`
	FileName     string    `json:"fileName" bson:"fileName"`
	ContentType  string    `json:"contentType" bson:"contentType"`
	Size         int64     `json:"size" bson:"size"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type ServiceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
