// Package services orchestrates notebook use cases on top of the entity
// store, the change queue, blob storage and the search index.
package services
