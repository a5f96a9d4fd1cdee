// Package normalize turns the free-form cells found in UMC fleet exports into
// clean values. Trip logs are typed by hand in Vietnamese spreadsheets, so the
// same column can hold "1:30", "1h30", "90 phút" or an Excel time stamp such as
// "1:30:00 AM"; distances and money use dots and commas as either decimal or
// thousands marks.
//
// Parsers never return negative quantities. Callers decide how a failed parse
// is recorded; the ingest layer falls back to zero and attaches an issue.
package normalize
