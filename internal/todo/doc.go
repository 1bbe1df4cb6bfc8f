// Package todo defines the task list model and its stored encoding.
//
// A list is stored as a JSON array under a single storage key:
//
//	[
//	  {"id": "6f1c9c1e-0d4f-4a55-9f57-3f7f8d0b3c11", "text": "buy milk", "completed": false},
//	  {"id": "a8d3e7d2-5c1b-4a3e-8a8f-1f2e3d4c5b6a", "text": "call mom", "completed": true}
//	]
//
// # Ordering
//
// Tasks keep insertion order. New tasks are appended and nothing reorders
// the list afterwards.
//
// # Identifiers
//
// IDs are random UUIDs generated at creation. They are only used for lookup
// and are never reused.
//
// # Decoding
//
// Decode checks the raw value against an embedded JSON Schema
// (draft 2020-12) before converting it. A value that is not valid JSON or
// does not match the schema is rejected with an error; callers that want the
// widget's "silent empty list" behavior treat any decode error as empty.
//
// # Encoding
//
// Encode always produces a compact JSON array. An empty or nil list encodes
// as "[]".
package todo
