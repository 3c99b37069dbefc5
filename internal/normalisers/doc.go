// Package normalisers holds the content extractors that turn raw page bodies
// into the plain text stored on nodes and sent to the embedding provider.
//
// The storage subpackage handles Confluence storage-format markup and the
// atlas_doc_format JSON document.
package normalisers
