// Package core provides the domain logic of the exoplanet explorer.
//
// It is independent of any transport: web handlers, the exoctl CLI and tests
// all drive the same types.
//
// # Tables
//
// A [Table] is an ordered header list plus rows keyed by header. Tables come
// from delimited text ([ParseCSV]) or spreadsheets ([ParseXLSX]); [ReadTable]
// picks the codec from the file name and enforces a size cap. Text input is
// transcoded to UTF-8 first (see [NewTextReader]).
//
// [BuildPreview] shows the first rows with a synthetic Result column. The
// stored table round-trips through [EncodeCSV].
//
// # Workspaces
//
// A [Workspace] bundles the repositories for one client's key/value
// namespace:
//
//	svc := core.NewService(store, node)
//	ws := svc.Workspace(clientID)
//	table, err := ws.Tables.Load(ctx)
//	rec, checks, err := ws.SubmitCandidate(ctx, fields)
//
// Repositories persist under fixed keys (see [KeyExoplanetData] and friends)
// and map absent values to sentinel errors such as [ErrNoTable].
//
// # Errors
//
// [MapError] turns any error from this module into a [UserMessage] with a
// support code.
package core
