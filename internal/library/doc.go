// Package library owns the deterministic on-disk layout: one directory per
// asset holding the copied source file and a clips subdirectory with
// zero-padded clip filenames. It also implements import (copy-in) and
// cascading delete.
package library
