package lib

import (
    "encoding/json"
    "fmt"
    "io"
)

/* status register bits, http://wiki.nesdev.com/w/index.php/Status_flags */
const (
    FlagCarry byte = 1 << 0
    FlagZero byte = 1 << 1
    FlagInterrupt byte = 1 << 2
    FlagDecimal byte = 1 << 3
    FlagBreak byte = 1 << 4
    FlagUnused byte = 1 << 5
    FlagOverflow byte = 1 << 6
    FlagNegative byte = 1 << 7
)

const AllFlags byte = 0xff

/* the bits that PLP and RTI take from the stack. B and the unused bit
 * do not exist as real latches inside the cpu.
 */
const stackedFlags byte = FlagNegative | FlagOverflow | FlagDecimal | FlagInterrupt | FlagZero | FlagCarry

func (cpu *CPUState) Status() byte {
    return cpu.status
}

/* bit 5 always reads back as 1 */
func (cpu *CPUState) SetStatus(value byte) {
    cpu.status = value | FlagUnused
}

func (cpu *CPUState) setBit(bit byte, set bool){
    if set {
        cpu.status = cpu.status | bit
    } else {
        cpu.status = cpu.status & (^bit)
    }
}

func (cpu *CPUState) getBit(bit byte) bool {
    return (cpu.status & bit) == bit
}

func (cpu *CPUState) GetCarryFlag() bool {
    return cpu.getBit(FlagCarry)
}

func (cpu *CPUState) SetCarryFlag(set bool){
    cpu.setBit(FlagCarry, set)
}

func (cpu *CPUState) GetZeroFlag() bool {
    return cpu.getBit(FlagZero)
}

func (cpu *CPUState) SetZeroFlag(zero bool){
    cpu.setBit(FlagZero, zero)
}

func (cpu *CPUState) GetInterruptDisableFlag() bool {
    return cpu.getBit(FlagInterrupt)
}

func (cpu *CPUState) SetInterruptDisableFlag(set bool){
    cpu.setBit(FlagInterrupt, set)
}

func (cpu *CPUState) GetDecimalFlag() bool {
    return cpu.getBit(FlagDecimal)
}

func (cpu *CPUState) SetDecimalFlag(set bool) {
    cpu.setBit(FlagDecimal, set)
}

func (cpu *CPUState) GetBreakFlag() bool {
    return cpu.getBit(FlagBreak)
}

func (cpu *CPUState) SetBreakFlag(set bool) {
    cpu.setBit(FlagBreak, set)
}

func (cpu *CPUState) GetOverflowFlag() bool {
    return cpu.getBit(FlagOverflow)
}

func (cpu *CPUState) SetOverflowFlag(set bool) {
    cpu.setBit(FlagOverflow, set)
}

func (cpu *CPUState) GetNegativeFlag() bool {
    return cpu.getBit(FlagNegative)
}

func (cpu *CPUState) SetNegativeFlag(set bool) {
    cpu.setBit(FlagNegative, set)
}

func (cpu *CPUState) setNZ(value byte){
    cpu.SetNegativeFlag(int8(value) < 0)
    cpu.SetZeroFlag(value == 0)
}

/* render the status register as NV--DIZC, upper case when set */
func FlagString(status byte) string {
    names := "NV--DIZC"
    out := make([]byte, 8)
    for i := 0; i < 8; i++ {
        bit := byte(1 << (7 - i))
        name := names[i]
        switch {
            case name == '-':
                out[i] = '-'
            case status & bit == bit:
                out[i] = name
            default:
                out[i] = name + ('a' - 'A')
        }
    }
    return string(out)
}

/* a copy of the register file that can be serialized and compared */
type Snapshot struct {
    A byte `json:"a"`
    X byte `json:"x"`
    Y byte `json:"y"`
    SP byte `json:"s"`
    PC uint16 `json:"pc"`
    Status byte `json:"p"`
    Cycle uint64 `json:"cycle"`
    Halted bool `json:"halted,omitempty"`
}

func (snapshot Snapshot) String() string {
    return fmt.Sprintf("A:0x%X X:0x%X Y:0x%X SP:0x%X P:0x%X PC:0x%X Cycle:%v", snapshot.A, snapshot.X, snapshot.Y, snapshot.SP, snapshot.Status, snapshot.PC, snapshot.Cycle)
}

func (snapshot Snapshot) Serialize(writer io.Writer) error {
    encoder := json.NewEncoder(writer)
    encoder.SetIndent("", "  ")
    return encoder.Encode(snapshot)
}

func ReadSnapshot(reader io.Reader) (Snapshot, error) {
    var snapshot Snapshot
    err := json.NewDecoder(reader).Decode(&snapshot)
    if err != nil {
        return Snapshot{}, fmt.Errorf("could not read snapshot: %w", err)
    }
    return snapshot, nil
}

func (cpu *CPUState) Snapshot() Snapshot {
    return Snapshot{
        A: cpu.A,
        X: cpu.X,
        Y: cpu.Y,
        SP: cpu.SP,
        PC: cpu.PC,
        Status: cpu.status,
        Cycle: cpu.cycle,
        Halted: cpu.halted,
    }
}

/* restore registers from a snapshot. pending interrupts are dropped. */
func (cpu *CPUState) Restore(snapshot Snapshot){
    cpu.A = snapshot.A
    cpu.X = snapshot.X
    cpu.Y = snapshot.Y
    cpu.SP = snapshot.SP
    cpu.PC = snapshot.PC
    cpu.SetStatus(snapshot.Status)
    cpu.cycle = snapshot.Cycle
    cpu.halted = snapshot.Halted
    cpu.nmiPending = false
}

func (cpu *CPUState) String() string {
    return cpu.Snapshot().String()
}
