package lib

import (
    "fmt"
)

/* The cpu sees a 16-bit address space through a Bus. Every Read and Write
 * is one cpu cycle. Memory mapped side effects belong to the bus owner.
 */
type Bus interface {
    Read(address uint16) byte
    Write(address uint16, value byte)
}

/* A side effect free read, used for disassembly and trace lines */
type Peeker interface {
    Peek(address uint16) byte
}

func peek(bus Bus, address uint16) (byte, bool) {
    peeker, ok := bus.(Peeker)
    if !ok {
        return 0, false
    }
    return peeker.Peek(address), true
}

func peekWord(bus Bus, address uint16) (uint16, bool) {
    low, ok := peek(bus, address)
    if !ok {
        return 0, false
    }
    high, _ := peek(bus, address + 1)
    return (uint16(high) << 8) | uint16(low), true
}

/* flat 64k of ram */
type Memory struct {
    Data [0x10000]byte
}

func NewMemory(fill byte) *Memory {
    memory := &Memory{}
    if fill != 0 {
        for i := range memory.Data {
            memory.Data[i] = fill
        }
    }
    return memory
}

func (memory *Memory) Read(address uint16) byte {
    return memory.Data[address]
}

func (memory *Memory) Write(address uint16, value byte){
    memory.Data[address] = value
}

func (memory *Memory) Peek(address uint16) byte {
    return memory.Data[address]
}

/* copy a block of bytes in, wrapping at the top of the address space */
func (memory *Memory) Load(location uint16, data []byte){
    for i, value := range data {
        memory.Data[location + uint16(i)] = value
    }
}

func (memory *Memory) SetVector(vector uint16, address uint16){
    memory.Data[vector] = byte(address & 0xff)
    memory.Data[vector + 1] = byte(address >> 8)
}

type AccessKind int

const (
    AccessNone AccessKind = iota
    AccessRead
    AccessWrite
    AccessReadModifyWrite
)

func (kind AccessKind) String() string {
    switch kind {
        case AccessNone: return "none"
        case AccessRead: return "read"
        case AccessWrite: return "write"
        case AccessReadModifyWrite: return "rmw"
    }
    return fmt.Sprintf("access(%d)", int(kind))
}

/* one bus cycle */
type BusAccess struct {
    Address uint16
    Value byte
    Kind AccessKind
}

func (access BusAccess) String() string {
    return fmt.Sprintf("%04X %02X %v", access.Address, access.Value, access.Kind)
}

/* wraps another bus and remembers every access in order */
type RecordingBus struct {
    Bus Bus
    Accesses []BusAccess
}

func NewRecordingBus(bus Bus) *RecordingBus {
    return &RecordingBus{Bus: bus}
}

func (recorder *RecordingBus) Read(address uint16) byte {
    value := recorder.Bus.Read(address)
    recorder.Accesses = append(recorder.Accesses, BusAccess{Address: address, Value: value, Kind: AccessRead})
    return value
}

func (recorder *RecordingBus) Write(address uint16, value byte){
    recorder.Bus.Write(address, value)
    recorder.Accesses = append(recorder.Accesses, BusAccess{Address: address, Value: value, Kind: AccessWrite})
}

func (recorder *RecordingBus) Peek(address uint16) byte {
    value, _ := peek(recorder.Bus, address)
    return value
}

func (recorder *RecordingBus) Reset(){
    recorder.Accesses = nil
}
