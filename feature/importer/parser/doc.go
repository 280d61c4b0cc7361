// Package parser turns raw CSV or JSON import payloads into rental company
// records with unresolved inventory lines.
//
// CSV parsing is lenient: lines that cannot be used are skipped and returned
// as warnings. JSON parsing accepts three shapes and rejects anything else
// with ErrUnknownShape.
package parser
