// Package httputil provides the JSON plumbing shared by the HTTP API
// handlers.
//
// # Overview
//
//   - [DecodeJSON]: strict, size-limited request body decoding
//   - [WriteJSON]: JSON responses with a status code
//   - [WriteError]: error responses whose status follows the error code
//
// Error responses have the form:
//
//	{"code": "NOT_FOUND", "error": "experiment square/hold not found"}
//
// Codes come from package errors; see [Status] for the mapping to HTTP
// status codes.
package httputil
