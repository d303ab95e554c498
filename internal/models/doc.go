// Package models defines domain entities and persistence interfaces for the trackdown service.
//
// The package contains two categories of types:
//
// 1. Value objects passed between packages:
//   - [TrackDescriptor] : Catalog metadata identifying a track to resolve
//   - [SearchCandidate] : A scored source candidate produced by search
//   - [AcquisitionResult] : Outcome of one download attempt, carrying its descriptor
//
// 2. Persistent entities: Database-backed records with full lifecycle management
//   - [CachedTrack] : Descriptors cached by catalog id and ISRC
//   - [JobRecord] : Completed job history with artifact metrics
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
