package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/commission"
	"github.com/marketplace/backend/internal/domain/shared"
)

// CommissionModel is the persistence model for the Commission aggregate root.
type CommissionModel struct {
	AggregateModel
	CommissionNumber  string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID           uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex"`
	VendorID          uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TransactionID     *uuid.UUID                   `gorm:"type:uuid;index"`
	OrderAmount       decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	Rate              decimal.Decimal              `gorm:"type:decimal(8,4);not null"`
	CommissionAmount  decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	VendorAmount      decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	PlatformAmount    decimal.Decimal              `gorm:"type:decimal(18,2);not null"`
	Currency          string                       `gorm:"type:varchar(3);not null;default:'COP'"`
	Type              commission.Type              `gorm:"type:varchar(20);not null;default:'STANDARD'"`
	Status            commission.Status            `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CalculationMethod commission.CalculationMethod `gorm:"type:varchar(20);not null;default:'automatic'"`
	Notes             string                       `gorm:"type:text"`
	AdminNotes        string                       `gorm:"type:text"`
	CalculatedAt      time.Time                    `gorm:"not null;index"`
	ApprovedAt        *time.Time
	PaidAt            *time.Time
	DisputedAt        *time.Time
	ResolvedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CommissionModel) TableName() string {
	return "commissions"
}

// ToDomain converts the persistence model to a domain Commission entity.
func (m *CommissionModel) ToDomain() *commission.Commission {
	return &commission.Commission{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		CommissionNumber:  m.CommissionNumber,
		OrderID:           m.OrderID,
		VendorID:          m.VendorID,
		TransactionID:     m.TransactionID,
		OrderAmount:       m.OrderAmount,
		Rate:              m.Rate,
		CommissionAmount:  m.CommissionAmount,
		VendorAmount:      m.VendorAmount,
		PlatformAmount:    m.PlatformAmount,
		Currency:          m.Currency,
		Type:              m.Type,
		Status:            m.Status,
		CalculationMethod: m.CalculationMethod,
		Notes:             m.Notes,
		AdminNotes:        m.AdminNotes,
		CalculatedAt:      m.CalculatedAt,
		ApprovedAt:        m.ApprovedAt,
		PaidAt:            m.PaidAt,
		DisputedAt:        m.DisputedAt,
		ResolvedAt:        m.ResolvedAt,
		ApprovedBy:        m.ApprovedBy,
	}
}

// FromDomain populates the persistence model from a domain Commission entity.
func (m *CommissionModel) FromDomain(c *commission.Commission) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.CommissionNumber = c.CommissionNumber
	m.OrderID = c.OrderID
	m.VendorID = c.VendorID
	m.TransactionID = c.TransactionID
	m.OrderAmount = c.OrderAmount
	m.Rate = c.Rate
	m.CommissionAmount = c.CommissionAmount
	m.VendorAmount = c.VendorAmount
	m.PlatformAmount = c.PlatformAmount
	m.Currency = c.Currency
	m.Type = c.Type
	m.Status = c.Status
	m.CalculationMethod = c.CalculationMethod
	m.Notes = c.Notes
	m.AdminNotes = c.AdminNotes
	m.CalculatedAt = c.CalculatedAt
	m.ApprovedAt = c.ApprovedAt
	m.PaidAt = c.PaidAt
	m.DisputedAt = c.DisputedAt
	m.ResolvedAt = c.ResolvedAt
	m.ApprovedBy = c.ApprovedBy
}

// CommissionModelFromDomain creates a new persistence model from a domain Commission entity.
func CommissionModelFromDomain(c *commission.Commission) *CommissionModel {
	m := &CommissionModel{}
	m.FromDomain(c)
	return m
}
