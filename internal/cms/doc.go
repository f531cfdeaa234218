// Package cms defines the data model of the management API (item types,
// fields, records) and the narrow contracts the conversion engine consumes.
//
// The engine never talks HTTP directly; it is wired against the SchemaAPI,
// ContentAPI and SiteAPI interfaces. Production code uses the REST
// implementation in cms/rest, tests use the in-memory one in cms/cmstest.
package cms
