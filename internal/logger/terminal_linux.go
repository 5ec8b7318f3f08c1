//go:build linux || solaris || illumos || aix

package logger

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TCGETS
