// Package compiler decodes plan documents into query plans and encodes plans
// back into canonical documents.
//
// A plan document is a tree of {"operation", "args"} objects:
//
//	{"operation": "projection", "args": {
//	    "object": {"operation": "load", "args": {"filename": "projets.csv"}},
//	    "attributes": ["idp", "responsable"]}}
//
// Documents are read through the CUE SDK, so a plan file may be plain JSON or
// CUE. Decoding errors carry the source position of the offending value.
package compiler
