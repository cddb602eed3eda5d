// Package extraction finds structured values in banking document text.
//
// Extraction is table driven: each entity type owns one case-insensitive
// pattern, and PAN, Aadhaar and IFSC values additionally carry a format
// validator. The quality score is derived from the same tables.
package extraction
