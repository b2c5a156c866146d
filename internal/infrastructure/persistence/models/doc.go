// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Stores use persistence models for database operations
//
// Structure:
// - base.go: TenantAggregateModel, the columns every tenant table shares
// - fleet.go: Employees, trucks and trailers
// - partner.go: Brokers and factoring companies
// - freight.go: Loads and their adjustment log
// - finance.go: Invoices, settlements and expenses
// - workflow.go: Follow-up tasks
// - audit.go: Append-only audit log
// - sequence.go: Per-tenant number sequences
package models
