// Package util holds small helpers shared by packages of this module. It
// lives in internal to avoid committing to public API stability prematurely.
package util
