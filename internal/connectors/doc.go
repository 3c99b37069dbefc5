// Package connectors holds the clients that read remote content sources.
// Each client implements a driven port and walks paginated collections
// until they are exhausted.
//
// The confluence subpackage reads spaces and page trees from the v2 REST API.
package connectors
