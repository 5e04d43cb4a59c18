package abi

import "fmt"

// Errno is a kernel error number. The numbering follows the historical
// BSD values so error codes round-trip unchanged through the trap frame.
type Errno int32

// Error numbers visible to user code.
const (
	EPERM   Errno = 1
	ENOENT  Errno = 2
	ESRCH   Errno = 3
	EINTR   Errno = 4
	EIO     Errno = 5
	ENXIO   Errno = 6
	E2BIG   Errno = 7
	ENOEXEC Errno = 8
	EBADF   Errno = 9
	ECHILD  Errno = 10
	EAGAIN  Errno = 11
	ENOMEM  Errno = 12
	EACCES  Errno = 13
	EFAULT  Errno = 14
	EBUSY   Errno = 16
	EEXIST  Errno = 17
	ENODEV  Errno = 19
	EINVAL  Errno = 22
	ENFILE  Errno = 23
	EMFILE  Errno = 24
	ENOSPC  Errno = 28
	EROFS   Errno = 30
	EPIPE   Errno = 32
	ERANGE  Errno = 34
)

// Kernel-internal sentinels. These never reach user registers; the
// dispatcher gives each one its own return protocol.
const (
	// ERESTART rewinds the return address so the trap instruction
	// re-executes, transparently restarting the call.
	ERESTART Errno = -1

	// EJUSTRETURN leaves the trap frame untouched, for paths that have
	// already prepared the frame themselves (signal handler return).
	EJUSTRETURN Errno = -2
)

func (err Errno) String() string {
	if name, ok := errnoNames[err]; ok {
		return name
	}
	return fmt.Sprintf("{Errno %d}", int32(err))
}

var errnoNames = map[Errno]string{
	EPERM:       "EPERM",
	ENOENT:      "ENOENT",
	ESRCH:       "ESRCH",
	EINTR:       "EINTR",
	EIO:         "EIO",
	ENXIO:       "ENXIO",
	E2BIG:       "E2BIG",
	ENOEXEC:     "ENOEXEC",
	EBADF:       "EBADF",
	ECHILD:      "ECHILD",
	EAGAIN:      "EAGAIN",
	ENOMEM:      "ENOMEM",
	EACCES:      "EACCES",
	EFAULT:      "EFAULT",
	EBUSY:       "EBUSY",
	EEXIST:      "EEXIST",
	ENODEV:      "ENODEV",
	EINVAL:      "EINVAL",
	ENFILE:      "ENFILE",
	EMFILE:      "EMFILE",
	ENOSPC:      "ENOSPC",
	EROFS:       "EROFS",
	EPIPE:       "EPIPE",
	ERANGE:      "ERANGE",
	ERESTART:    "ERESTART",
	EJUSTRETURN: "EJUSTRETURN",
}
