// Package testutil contains helper builders used across tests to reduce
// boilerplate when scripting model output and seeding histories. These
// helpers are not intended for production usage.
package testutil
