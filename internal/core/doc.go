// Package core is the roster-to-form pipeline shared by the web server and
// the command line tool. It has no HTTP or flag handling of its own.
//
// # Flow
//
//  1. [Service.Inspect] reads an upload with the sheet package, locates the
//     college column and reorders rows by the configured profile. The
//     returned [Inspection] lists the columns, the colleges found, canonical
//     colleges with no rows and colleges outside the order.
//  2. [Service.Generate] repeats the inspection, keeps the selected columns
//     and renders either a .docx leave form or an .xlsx list.
//
// Both calls take a slot from the [UploadLimiter] so a burst of large
// workbooks cannot exhaust memory. Nothing is persisted; every call works on
// its own copy of the data.
//
// # Error Handling
//
// Errors keep their technical cause for logs. [MapError] turns them into a
// [UserMessage] with a code users can quote:
//
//   - CAT001-CAT003: college column and roster contents
//   - FILE001-FILE005: size, decoding and format of the file
//   - COL001-COL002: column selection
//   - DOC001-DOC002: form kind and activity details
//   - UPL001-UPL005: request handling, busy, cancelled, timeout
package core
