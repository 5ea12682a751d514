// Package discovery advertises and finds ktimer devices over mDNS.
//
// A device registers one service instance of type _ktimer._tcp in the
// local domain, named after the device. Its TXT records carry:
//
//	id      device ID (required)
//	name    display name
//	timers  comma-separated timer IDs
//	ver     API version (major.minor)
//
// Controllers browse for the service type and connect to the advertised
// host and port with package transport.
package discovery
