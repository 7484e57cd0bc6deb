// Package probe watches configured optical drives for inserted media and
// reports detected discs through a common interface, regardless of whether
// detection is driven by polling lsblk/blkid or by listening for udev
// netlink events.
package probe
