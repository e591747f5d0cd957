//go:build !linux

// Package mpris is a no-op off Linux: MPRIS is a D-Bus interface.
package mpris

// Nothing registers here; the host simply loads no MPRIS remote.
