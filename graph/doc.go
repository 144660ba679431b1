// Package graph holds the mutable patch document edited on the canvas:
// nodes placed from the catalog, connections between them, and the
// persisted view state. One document is owned by one editor session and
// mutated only from the main thread.
package graph
