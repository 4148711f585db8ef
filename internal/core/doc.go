// Package core provides the business logic for importing and exporting job
// applications as CSV.
//
// This package has no transport dependencies. It is used by the web server,
// the jobtrack CLI, and tests without modification.
//
// # Import Pipeline
//
// An upload flows through four stages:
//
//  1. [Importer.CheckFile] refuses wrong extensions, empty files and files
//     over [DefaultMaxFileSize] before any byte is read.
//  2. The source is decoded (BOM stripped, invalid UTF-8 replaced) and
//     tokenized row by row with encoding/csv.
//  3. Headers are mapped to canonical fields with [NormalizeHeader]; each row
//     goes through [RowValidator.Validate], which collects every field error.
//  4. Valid rows become [DataRecord]s, invalid rows become [ImportError]s, and
//     the call resolves with one [ImportResult].
//
// Progress is emitted every [DefaultProgressInterval] rows, either to a
// [ProgressCallback] ([Importer.Import]) or over a channel
// ([Importer.Stream]). The terminal counts are always in
// [ImportResult.Progress].
//
// # Date Ambiguity
//
// [ParseDate] tries month-first before day-first for both slash and dash
// dates. "03/04/2024" is March 4; "13/04/2024" is April 13 because month 13
// does not exist. Previously exported files depend on this order.
//
// # Partial Success
//
// [ImportResult.Success] is true when there are no errors or when at least
// one record was imported. Callers inspect Errors to decide whether to warn.
//
// # Service
//
// [Service] wraps the importer with an [ImportLimiter], persists the finished
// record list through a [Repository], and optionally copies it to a
// [Mirror]. Records are written only after the whole file is classified.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]; see
// error_messages.go for the code reference. [HTTPStatus] picks the response
// status for service errors.
package core
