// Package windows implements the platform interfaces with Win32: window
// and control enumeration, window messages, synthetic input, screen
// capture, process listing and file version resources.
//
// Only keys.go builds on other systems so the key table can be tested
// anywhere.
package windows
