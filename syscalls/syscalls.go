// Package syscalls carries a small default syscall table. The table's
// real contents belong to the kernel proper; these handlers exist to
// exercise the dispatch path (register arguments, stack arguments, error
// returns) from the demo binary and integration tests.
package syscalls

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/vanir-os/vanir/abi"
	"github.com/vanir-os/vanir/kernel"
)

// Codes in the default table.
const (
	SYS_nosys  = 0
	SYS_exit   = 1
	SYS_getpid = 2
	SYS_write  = 3
	SYS_mmap   = 4
)

// DefaultTable builds the demo table. Entry 0 is nosys, which also
// catches every out-of-range code.
func DefaultTable() *kernel.SyscallTable {
	return kernel.NewSyscallTable([]kernel.Sysent{
		SYS_nosys:  {NArg: 0, Call: Nosys},
		SYS_exit:   {NArg: 1, Call: Exit},
		SYS_getpid: {NArg: 0, Call: Getpid},
		SYS_write:  {NArg: 3, Call: Write},
		SYS_mmap:   {NArg: 6, Call: Mmap},
	})
}

func Nosys(l hclog.Logger, k *kernel.Kernel, p *kernel.Proc) {
	l.Info("nosys", "pid", p.Pid, "at", p.Code)
	p.Error = abi.EINVAL
}

func Exit(l hclog.Logger, k *kernel.Kernel, p *kernel.Proc) {
	l.Info("exit", "pid", p.Pid, "status", int32(p.Args[0]))
}

func Getpid(l hclog.Logger, k *kernel.Kernel, p *kernel.Proc) {
	p.RVal = uint32(p.Pid)
}

// Write copies user bytes out to the machine console. Only the stdio fds
// exist at this layer.
func Write(l hclog.Logger, k *kernel.Kernel, p *kernel.Proc) {
	var (
		fd  = p.Args[0]
		ptr = p.Args[1]
		n   = p.Args[2]
	)

	var w io.Writer
	switch fd {
	case 1:
		w = os.Stdout
	case 2:
		w = os.Stderr
	default:
		p.Error = abi.EBADF
		return
	}

	data := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		addr := ptr + i
		if !k.Mem.Valid(addr &^ 3) {
			p.Error = abi.EFAULT
			return
		}
		data[i] = byte(k.Mem.ReadWord(addr&^3) >> (8 * (addr % 4)))
	}

	if _, err := w.Write(data); err != nil {
		p.Error = abi.EIO
		return
	}

	p.RVal = n
}

// Mmap is a six-argument stub: it validates nothing and hands the
// requested address back, which is all the dispatch tests need from it.
func Mmap(l hclog.Logger, k *kernel.Kernel, p *kernel.Proc) {
	l.Trace("mmap", "addr", p.Args[0], "len", p.Args[1], "prot", p.Args[2],
		"flags", p.Args[3], "fd", p.Args[4], "off", p.Args[5])
	p.RVal = p.Args[0]
}
