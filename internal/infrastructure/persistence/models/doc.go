// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags or infrastructure concerns
// 2. Persistence models carry all GORM annotations and table mappings
// 3. Mappers (XxxModelFromDomain / ToDomain) convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Record and Versioned
// - identity.go: users
// - catalog.go: restaurants, menu_items
// - ordering.go: orders (line items and timeline as JSON), payments
// - delivery.go: batches
// - review.go: reviews
// - audit.go: status_audits
package models
