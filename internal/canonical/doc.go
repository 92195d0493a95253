// Package canonical serialises parsed JSON trees into a single canonical
// byte form and derives fingerprints from it.
//
// Lineage metadata is compared byte for byte (a second synchronize must not
// change anything) and fingerprinted when a notebook is indexed. Both need a
// serialisation that does not depend on map iteration order, HTML escaping
// or Unicode normalisation form:
//   - Object keys sorted by UTF-16 code units (RFC 8785), not UTF-8 bytes
//   - No HTML escaping (< > & are written as-is)
//   - Strings NFC normalised
//   - No insignificant whitespace
//
// Numbers are written exactly as they were parsed (json.Number) so that a
// notebook's opaque values survive unchanged.
package canonical
