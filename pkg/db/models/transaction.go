package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/higujral/zcollabz/pkg/enums"
)

// Transaction tracks payment against a single payment link. InvoiceID is nil
// for links created without an invoice.
type Transaction struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ClientName      string              `gorm:"column:client_name;not null"`
	ServiceName     string              `gorm:"column:service_name;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentLinkURL  string              `gorm:"column:payment_link_url;not null"`
	Status          enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	StripeSessionID *string             `gorm:"column:stripe_session_id"`
	InvoiceID       *uuid.UUID          `gorm:"column:invoice_id;type:uuid"`
	Invoice         *Invoice            `gorm:"foreignKey:InvoiceID;references:ID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string { return "transactions" }
