// Package utils provides cell conversion helpers shared by the spreadsheet readers.
// Spreadsheet exports carry every value as text; these functions turn that text
// into the typed values the reconciliation engine compares.
package utils
