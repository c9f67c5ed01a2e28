// Package sane implements a pure-Go client for the SANE network
// protocol (saned): the same wire protocol the SANE project's own
// net backend speaks, without any dependency on libsane.
//
// Connect to a daemon by calling Open with its address and port. The
// default SANE port is 6566.
//
//	sess, err := sane.Open("scanner.local", 6566, sane.Options{})
//
// Call ListDevices to enumerate the scanners the daemon can reach.
//
//	devs, err := sess.ListDevices()
//
// Obtain a Device handle by name and Open it.
//
//	dev := sess.Device(devs[0].Name)
//	err := dev.Open()
//
// Call ListOptions to retrieve the device's option descriptors. An
// option's current value is read or written through its typed
// accessors; writing one may change the value or availability of
// others, reported back as Info bits.
//
//	opts, err := dev.ListOptions()
//	val, err := opts[0].GetString()
//	val, info, err := opts[0].SetString("300")
//
// To scan an image with the options as currently configured, call
// AcquireImage. The returned Image implements the standard library
// image.Image interface.
//
//	img, err := dev.AcquireImage(nil)
//
// Although AcquireImage blocks, a scan in progress can be interrupted
// from another goroutine by calling Session.Abort, which forcibly
// closes the socket. Device.Cancel takes the session's mutex, which
// AcquireImage holds for the whole scan, so it runs only after the
// scan has returned.
//
// Additional images may be scanned while the device is open. To
// release the device and the session, call Device.Close and then
// Session.Close.
//
// If a resource demands authorization, install a PasswordProvider with
// Session.SetPasswordProvider (or supply one in Options) before issuing
// the operation that will need it; the protocol's AUTHORIZE round trip
// happens transparently inside the call.
package sane
