package models

// Client is a customer whose trades are recorded in the ledger.
type Client struct {
	Base
	Name  string `gorm:"size:200;not null" json:"name"`
	Email string `gorm:"size:254;not null" json:"email"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
}
