// Package graph defines the CSG design graph. The design graph is an
// immutable DAG of primitives, transforms, Boolean operations and groups
// that describes a scene; it is produced by the Lisp engine and evaluated
// into solids by package csg.
package graph
