// Package camera owns the capture session: one opened device, its preview
// surface and its still-capture requests.
//
// The platform camera stack is reached through the Manager and Device
// interfaces. Every call into a Device runs on a single Worker goroutine in
// the order open -> configure -> repeating preview -> capture, mirroring
// the callback order of mobile camera APIs. Callers on other goroutines
// only submit work and wait on the result.
//
// Orientation of still captures comes from a per-facing lookup table (see
// JPEGOrientation) so that adding a facing is a data change.
package camera
