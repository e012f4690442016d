// Package api exposes TaskService over HTTP.
//
// TaskHandler serves the JSON API under /api with {success, message, data}
// envelopes. WebHandler serves the same operations as a server-rendered page
// under /tasks, answering mutations with a 303 redirect and a flash cookie.
// Errors are mapped to status codes by MapErrorToStatusCode and never leak
// internal details to clients.
package api
