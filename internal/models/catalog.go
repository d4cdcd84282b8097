package models

import (
	"time"

	"gorm.io/gorm"
)

// Branch is a physical library location
type Branch struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string `gorm:"type:varchar(255)" json:"name"`
	Location string `gorm:"type:varchar(255)" json:"location"`

	ManagerID *uint     `json:"manager_id"`
	Manager   *User     `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Sections  []Section `gorm:"foreignKey:BranchID" json:"sections,omitempty"`
}

// Section is a shelving area within a branch
type Section struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string `gorm:"type:varchar(255)" json:"name"`
	BranchID uint   `gorm:"index" json:"branch_id"`
	Branch   Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
}

// Publisher of catalog titles
type Publisher struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255);uniqueIndex" json:"name"`
	Address string `gorm:"type:text" json:"address"`
}

// Author of catalog titles
type Author struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name string `gorm:"type:varchar(255)" json:"name"`
}

// Book is a catalog entry; physical stock lives in BookCopy
type Book struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ISBN            string `gorm:"type:varchar(13);uniqueIndex" json:"isbn"`
	Title           string `gorm:"type:varchar(500)" json:"title"`
	Category        string `gorm:"type:varchar(50)" json:"category"`
	Edition         string `gorm:"type:varchar(100)" json:"edition"`
	PublicationYear int    `json:"publication_year"`
	Language        string `gorm:"type:varchar(50)" json:"language"`

	PublisherID uint      `gorm:"index" json:"publisher_id"`
	Publisher   Publisher `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	SectionID   uint      `gorm:"index" json:"section_id"`
	Section     Section   `gorm:"foreignKey:SectionID" json:"section,omitempty"`

	Authors []Author   `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Copies  []BookCopy `gorm:"foreignKey:BookID" json:"copies,omitempty"`
}

// CopyCondition tracks the physical state of a copy
type CopyCondition string

const (
	CopyConditionGood    CopyCondition = "good"
	CopyConditionDamaged CopyCondition = "damaged"
	CopyConditionLost    CopyCondition = "lost"
)

// BookCopy is a physical instance of a Book. A copy is available iff its
// condition is good and no loan on it is currently borrowed; availability
// is always recomputed from loan existence, never stored.
type BookCopy struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BookID        uint          `gorm:"index" json:"book_id"`
	Book          Book          `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Barcode       string        `gorm:"type:varchar(255);uniqueIndex" json:"barcode"`
	PurchasePrice float64       `gorm:"type:decimal(10,2)" json:"purchase_price"`
	Condition     CopyCondition `gorm:"type:varchar(20);default:'good'" json:"condition"`
	LastSeen      time.Time     `gorm:"type:date" json:"last_seen"`
}

// BookConditionLog records the condition history of a copy
type BookConditionLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BookCopyID uint          `gorm:"index" json:"book_copy_id"`
	BookCopy   BookCopy      `gorm:"foreignKey:BookCopyID" json:"book_copy,omitempty"`
	Condition  CopyCondition `gorm:"type:varchar(20)" json:"condition"`
	Notes      string        `gorm:"type:text" json:"notes"`
}
