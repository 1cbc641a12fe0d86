// Package gnss talks to an MTK-family GNSS receiver (PA1616D, MT3333, ...)
// over a serial line: it configures the sentence mix and fix interval at
// startup and exposes the port as a byte source for the NMEA reassembler.
package gnss
