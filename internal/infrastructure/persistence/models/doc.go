// Package models contains GORM persistence models for the ledger tables.
// Domain entities stay free of ORM tags; each model converts with ToDomain
// and a ...ModelFromDomain constructor.
package models
