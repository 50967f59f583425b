// Package roster holds the decision logic behind a leave form: finding the
// header row of an uploaded sheet, cleaning the college column, and putting
// rows into the office's fixed college order.
//
// The flow for one upload is:
//
//  1. [LocateHeader] picks the header row among the first few physical rows.
//  2. [NewDataset] builds records with a validated, uniform field set.
//  3. [Profile.Apply] finds the college column, runs [Normalize] over it and
//     calls [Reorder], which appends colleges outside the canonical order
//     after the known ones, in first-seen order.
//  4. [Project] narrows the result to the columns the user picked.
//
// Nothing here keeps state between uploads. A [Profile] is read-only after
// [NewProfile] returns and may be shared.
package roster
