// Package codec holds the little-endian primitives shared by the raw
// recording log and the track cache files: fixed-width integers, IEEE
// singles, 1- and 4-byte length-prefixed strings and bounded sub-range
// copies between streams.
package codec
