// Package execx runs external programs with bounded timeouts and captured
// output. Non-zero exits are results, not errors; a timeout surfaces as the
// reserved exit code 124 after the child has been killed.
package execx
