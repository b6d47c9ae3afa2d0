package models

import (
	"github.com/autodealer/backend/internal/domain/partner"
)

// ClientModel is the persistence model for the Client aggregate.
type ClientModel struct {
	AggregateModel
	FirstName  string `gorm:"size:100"`
	LastName   string `gorm:"size:100;not null;index"`
	Email      string `gorm:"size:200;index"`
	Phone      string `gorm:"size:50"`
	Address    string `gorm:"size:255"`
	PostalCode string `gorm:"size:20"`
	City       string `gorm:"size:100"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		BaseAggregateRoot: m.ToAggregateRoot(),
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		PostalCode:        m.PostalCode,
		City:              m.City,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		City:       c.City,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
