// Package nmea turns a serial GNSS byte stream into recommended-minimum-fix
// (RMC) fields without allocating.
//
// The pipeline is deliberately small:
//   - Reassembler frames bytes into one CR/LF-stripped line at a time
//   - IsRMC decides whether the line is worth tokenizing
//   - Tokenize splits the line in place at commas
//
// Checksums on inbound sentences are not verified.
package nmea
