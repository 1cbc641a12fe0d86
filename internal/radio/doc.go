// Package radio provides the addressed, acknowledged datagram service the
// beacon transmits through.
//
// The sub-GHz FSK hardware is emulated over UDP: every node owns a socket,
// and a frame on that "air" carries the network sync words followed by a
// RadioHead-style header:
//
//	sync0 sync1 to from id flags payload...
//
// Nodes drop frames whose sync words differ from their own, the same way
// RFM69 packet engines never hear other networks.
package radio
