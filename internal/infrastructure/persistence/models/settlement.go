package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/settlement"
	"github.com/marketplace/backend/internal/domain/shared"
)

// TransactionModel is the persistence model for the settlement Transaction
// aggregate root.
type TransactionModel struct {
	AggregateModel
	Reference         string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Amount            decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	PaymentMethod     settlement.PaymentMethod   `gorm:"type:varchar(20);not null;index"`
	Status            settlement.Status          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Type              settlement.TransactionType `gorm:"type:varchar(20);not null;index"`
	BuyerID           uuid.UUID                  `gorm:"type:uuid;not null;index"`
	VendorID          *uuid.UUID                 `gorm:"type:uuid;index"`
	InventoryID       *uuid.UUID                 `gorm:"type:uuid"`
	CommissionPercent decimal.Decimal            `gorm:"type:decimal(8,2);not null;default:0"`
	VendorAmount      decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentReference  string                     `gorm:"type:varchar(100)"`
	Notes             string                     `gorm:"type:text"`
	IntegrityHash     string                     `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "settlement_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *settlement.Transaction {
	return &settlement.Transaction{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Reference:         m.Reference,
		Amount:            m.Amount,
		PaymentMethod:     m.PaymentMethod,
		Status:            m.Status,
		Type:              m.Type,
		BuyerID:           m.BuyerID,
		VendorID:          m.VendorID,
		InventoryID:       m.InventoryID,
		CommissionPercent: m.CommissionPercent,
		VendorAmount:      m.VendorAmount,
		PaymentReference:  m.PaymentReference,
		Notes:             m.Notes,
		IntegrityHash:     m.IntegrityHash,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *settlement.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Reference = t.Reference
	m.Amount = t.Amount
	m.PaymentMethod = t.PaymentMethod
	m.Status = t.Status
	m.Type = t.Type
	m.BuyerID = t.BuyerID
	m.VendorID = t.VendorID
	m.InventoryID = t.InventoryID
	m.CommissionPercent = t.CommissionPercent
	m.VendorAmount = t.VendorAmount
	m.PaymentReference = t.PaymentReference
	m.Notes = t.Notes
	m.IntegrityHash = t.IntegrityHash
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction entity.
func TransactionModelFromDomain(t *settlement.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
