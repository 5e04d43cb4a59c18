package main

import (
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"

	vlog "github.com/vanir-os/vanir/log"
	"github.com/vanir-os/vanir/machine"
	"github.com/vanir-os/vanir/syscalls"
)

var (
	fRAM  = pflag.Uint32("ram", 128<<10, "RAM size in bytes")
	fDump = pflag.Bool("dump", false, "dump final CPU state")
)

const (
	ramStart  = 0x20000000
	uareaSize = 0x400
)

func main() {
	pflag.Parse()

	ram := machine.NewRAM(ramStart, *fRAM)

	kernTop := ramStart + *fRAM/4
	userBase := kernTop
	userEnd := ramStart + *fRAM

	m := machine.New(machine.Config{
		L:            vlog.L,
		RAM:          ram,
		Table:        syscalls.DefaultTable(),
		UserBase:     userBase,
		UserDataEnd:  userEnd,
		KernStackTop: kernTop,
		UAreaSize:    uareaSize,
	})

	m.Proc = m.NewProc(1, userBase+4<<10, 8<<10)

	if err := m.Syscall(syscalls.SYS_getpid); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("getpid: %d\n", m.CPU.R[0])

	// Stage a message in the user data segment and write it out.
	msg := "hello from thread mode\n"
	base := m.Proc.DataBase
	for i := 0; i < len(msg); i++ {
		addr := base + uint32(i)
		w, _ := ram.ReadWord(addr &^ 3)
		shift := 8 * (addr % 4)
		w = w&^(0xff<<shift) | uint32(msg[i])<<shift
		if err := ram.WriteWord(addr&^3, w); err != nil {
			log.Fatal(err)
		}
	}

	if err := m.Syscall(syscalls.SYS_write, 1, base, uint32(len(msg))); err != nil {
		log.Fatal(err)
	}

	if err := m.Syscall(syscalls.SYS_mmap, 0x40000, 4096, 3, 1, 0xffffffff, 0); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("mmap: %#x carry=%v\n", m.CPU.R[0], m.Carry())

	// An unknown code lands on entry 0.
	if err := m.Syscall(200); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("code 200: r0=%d carry=%v\n", m.CPU.R[0], m.Carry())

	fmt.Printf("traps=%d syscalls=%d stack high-water=%d bytes\n",
		m.Kern.Stats.Traps, m.Kern.Stats.Syscalls, m.Proc.StackSize)

	if *fDump {
		spew.Dump(m.CPU)
	}
}
