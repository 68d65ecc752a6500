// Package models holds the GORM persistence models of the messaging service.
//
// Models are kept apart from the domain entities: each model converts to and
// from its entity with ToDomain/FromDomain, and many-to-many relations are
// stored in explicit relation tables loaded by the repositories.
package models
