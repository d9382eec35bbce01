// Package contact holds the contact data model: canonical records,
// import parsers for the three recognized file shapes, the source
// registry, and batch partitioning over the active collection.
package contact
