// Package lib provides small, self-contained helpers used across vmem's
// components. They are not tied to the arena's data model and depend on
// nothing beyond the standard library.
package lib
