// Package translate is the client for the NLLB translation server. Segment
// texts are sent in bounded batches; order is preserved so timings can be
// re-attached to the translated lines.
package translate
