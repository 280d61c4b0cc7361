// Package importer provides the bulk import of rental companies.
//
// An import parses a CSV or JSON payload, plans the catalog writes and
// commits them in one transaction. When the payload references unknown
// manufacturers the import is suspended: the payload is kept in a session
// store and the caller resumes it with one resolution per missing id.
//
// # Endpoints
//
//   - POST /import: new import ({data, format, options}) or resumption
//     ({importSessionId, resolutions})
//   - POST /import/file: multipart upload
//   - GET /import/sessions/:id, DELETE /import/sessions/:id
//
// Committed payloads are archived under imports/YYYY/MM/DD/ when object
// storage is enabled.
package importer
