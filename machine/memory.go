package machine

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// RAM is the flat memory image of the synthetic machine. Kernel stacks
// and the user segments all live in the one region, as they do on the
// real part.
type RAM struct {
	Start, Size uint32

	linear []byte
}

func NewRAM(start, size uint32) *RAM {
	return &RAM{
		Start:  start,
		Size:   size,
		linear: make([]byte, size),
	}
}

func (r *RAM) Contains(addr uint32) bool {
	if addr < r.Start {
		return false
	}

	if addr-r.Start >= r.Size {
		return false
	}

	return true
}

func (r *RAM) ReadWord(addr uint32) (uint32, error) {
	if !r.Contains(addr) || !r.Contains(addr+3) {
		return 0, errors.Errorf("word read outside ram: %#x", addr)
	}

	off := addr - r.Start
	return binary.LittleEndian.Uint32(r.linear[off:]), nil
}

func (r *RAM) WriteWord(addr uint32, v uint32) error {
	if !r.Contains(addr) || !r.Contains(addr+3) {
		return errors.Errorf("word write outside ram: %#x", addr)
	}

	off := addr - r.Start
	binary.LittleEndian.PutUint32(r.linear[off:], v)
	return nil
}

func (r *RAM) ReadHalf(addr uint32) (uint16, error) {
	if !r.Contains(addr) || !r.Contains(addr+1) {
		return 0, errors.Errorf("halfword read outside ram: %#x", addr)
	}

	off := addr - r.Start
	return binary.LittleEndian.Uint16(r.linear[off:]), nil
}

func (r *RAM) WriteHalf(addr uint32, v uint16) error {
	if !r.Contains(addr) || !r.Contains(addr+1) {
		return errors.Errorf("halfword write outside ram: %#x", addr)
	}

	off := addr - r.Start
	binary.LittleEndian.PutUint16(r.linear[off:], v)
	return nil
}

// UserMem is the kernel's window onto the user-accessible range of RAM.
// It implements kernel.UserMemory: raw reads are unchecked (unmapped
// addresses read as zero) and Valid is the predicate the dispatcher runs
// before touching user stack words.
type UserMem struct {
	RAM  *RAM
	Base uint32
	End  uint32
}

func (u *UserMem) ReadWord(addr uint32) uint32 {
	v, err := u.RAM.ReadWord(addr)
	if err != nil {
		return 0
	}
	return v
}

func (u *UserMem) Valid(addr uint32) bool {
	return addr >= u.Base && addr <= u.End-4
}
