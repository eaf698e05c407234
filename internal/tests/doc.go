// Package tests holds end-to-end tests that run the HTTP and RESP front ends
// over a Badger-backed store and restart it between steps.
package tests
