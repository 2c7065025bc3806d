// Package generator renders extracted tables as text: TypeScript
// declarations for the generated output, and CREATE statements for tables
// read from a live database.
package generator
