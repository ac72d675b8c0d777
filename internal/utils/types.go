package utils

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;not null" json:"id"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"not null" json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type Document struct {
	ID          string    `gorm:"primaryKey;not null" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	ContentType string    `gorm:"not null" json:"contentType"`
	Size        int64     `gorm:"not null" json:"size"`
	StorageKey  string    `gorm:"not null" json:"-"`
	OwnerID     string    `gorm:"not null;index" json:"ownerId"`
	FolderID    *string   `gorm:"index" json:"folderId"`
	CreatedAt   time.Time `json:"createdAt"`

	// SharedWith is filled from document_shares when a document is returned.
	SharedWith []string `gorm:"-" json:"sharedWith"`
}

// DocumentShare is one entry of a document's share-list. The composite
// primary key gives set semantics.
type DocumentShare struct {
	DocumentID string    `gorm:"primaryKey;not null" json:"documentId"`
	UserID     string    `gorm:"primaryKey;not null;index" json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ShareMember is a share-list entry resolved to the principal it names.
type ShareMember struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Folder struct {
	ID             string    `gorm:"primaryKey;not null" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	OwnerID        string    `gorm:"not null;index" json:"ownerId"`
	ParentFolderID *string   `gorm:"index" json:"parentFolderId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Notification struct {
	ID        string    `gorm:"primaryKey;not null" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

type Memo struct {
	ID        string    `gorm:"primaryKey;not null" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin}
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&User{}, &Document{}, &DocumentShare{}, &Folder{}, &Notification{}, &Memo{}}
}
