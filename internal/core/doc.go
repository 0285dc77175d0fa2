// Package core turns a sitemap and a redirect spreadsheet into clean
// redirect exports.
//
// The pure transforms carry no state and can be used by the web handlers,
// the CLI, or tests directly:
//
//   - [ExtractSlugs] reads the <url><loc> entries of a sitemap and returns
//     unique site paths in document order. Entries on a host other than the
//     first absolute URL are dropped.
//   - [ParseCSV] and [StringifyCSV] are a small line-oriented CSV codec.
//     Quoted fields cannot span lines.
//   - [BuildRedirects] locates the Old, Destination and Redirect Type
//     columns by header substring and builds one [RedirectRecord] per row.
//   - [ApplyBulkDestination] and [SetDestination] edit destinations and
//     always return a new slice.
//   - [ExportSlugs] and [ExportRedirects] render the two CSV downloads.
//
// [Service] adds workspaces on top: each holds the slugs of the last sitemap
// and the records of the last redirect CSV, persisted through a
// [WorkspaceStore]. Loads are bounded by an [UploadLimiter] and a failed
// operation never changes the stored workspace.
//
// Errors are sentinels checked with errors.Is. [MapError] turns any error
// into a [UserMessage] with a support code (SMAP001, RDR001, ...).
package core
