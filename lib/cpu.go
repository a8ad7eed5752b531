package lib

import (
    "errors"
    "fmt"
    "log"
)

const NMIVector uint16 = 0xfffa
const ResetVector uint16 = 0xfffc
const IRQVector uint16 = 0xfffe

/* http://wiki.nesdev.com/w/index.php/Cycle_reference_chart#Clock_rates
 * NTSC 2c0c clock speed is 21.47~ MHz ÷ 12 = 1.789773 MHz
 */
const CPUSpeed float64 = 1.789773e6

const StackBase uint16 = 0x100

/* returned by Step once a JAM opcode has locked up the cpu */
var ErrHalted = errors.New("cpu halted")

type Variant struct {
    Name string
    /* ADC/SBC honor the decimal flag */
    Decimal bool
}

var (
    MOS6502 = Variant{
        Name: "MOS 6502",
        Decimal: true,
    }

    /* the NES cpu, decimal mode was cut from the die */
    Ricoh2A03 = Variant{
        Name: "Ricoh 2A03",
        Decimal: false,
    }
)

func VariantByName(name string) (Variant, error) {
    switch name {
        case "6502", "nmos", "mos6502": return MOS6502, nil
        case "nes", "2a03", "ricoh2a03": return Ricoh2A03, nil
    }
    return Variant{}, fmt.Errorf("unknown cpu variant '%v'", name)
}

type CPUState struct {
    A byte
    X byte
    Y byte
    SP byte
    PC uint16
    status byte

    cycle uint64

    Variant Variant
    Bus Bus

    /* NMI is edge triggered and latched until serviced, IRQ is a level */
    nmiPending bool
    irqLine bool

    halted bool

    /* log every instruction when > 0 */
    Debug uint

    Tracer *Tracer

    /* set while an instruction executes so the tracer can see operand bytes */
    record *TraceRecord
}

func NewCPU(bus Bus, variant Variant) *CPUState {
    cpu := &CPUState{
        Bus: bus,
        Variant: variant,
        Tracer: NewTracer(),
    }
    cpu.SetStatus(0)
    return cpu
}

/* http://wiki.nesdev.com/w/index.php/CPU_power_up_state
 * registers as nestest and Mesen show them after the reset sequence.
 */
func (cpu *CPUState) PowerOn() {
    cpu.A = 0
    cpu.X = 0
    cpu.Y = 0
    cpu.SP = 0
    cpu.SetStatus(0)
    cpu.cycle = 0
    cpu.halted = false
    cpu.nmiPending = false
    cpu.irqLine = false
    cpu.Reset()
}

func (cpu *CPUState) Reset() {
    /* https://en.wikipedia.org/wiki/Interrupts_in_65xx_processors
     *
     * http://users.telenet.be/kim1-6502/6502/proman.html#90
     * Cycles   Address Bus   Data Bus    External Operation     Internal Operation
     *
     * 1           ?           ?        Don't Care             Hold During Reset
     * 2         ? + 1         ?        Don't Care             First Start State
     * 3        0100 + SP      ?        Don't Care             Second Start State
     * 4        0100 + SP-1    ?        Don't Care             Third Start State
     * 5        0100 + SP-2    ?        Don't Care             Fourth Start State
     * 6        FFFC        Start PCL   Fetch First Vector
     * 7        FFFD        Start PCH   Fetch Second Vector    Hold PCL
     * 8        PCH PCL     First       Load First OP CODE
     *                      OP CODE
     */
    cpu.read(cpu.PC)
    cpu.read(cpu.PC)
    for i := 0; i < 3; i++ {
        cpu.read(StackBase + uint16(cpu.SP))
        cpu.SP -= 1
    }
    cpu.PC = cpu.readWord(ResetVector)
    cpu.SetInterruptDisableFlag(true)
    cpu.halted = false
}

func (cpu *CPUState) Cycles() uint64 {
    return cpu.cycle
}

/* used by the machine's debug reset, the counter otherwise only grows */
func (cpu *CPUState) SetCycles(cycles uint64){
    cpu.cycle = cycles
}

func (cpu *CPUState) Halted() bool {
    return cpu.halted
}

/* latch an NMI edge, serviced before the next instruction */
func (cpu *CPUState) NMI() {
    cpu.nmiPending = true
}

func (cpu *CPUState) IsNMIPending() bool {
    return cpu.nmiPending
}

func (cpu *CPUState) SetIRQ(asserted bool){
    cpu.irqLine = asserted
}

func (cpu *CPUState) IsIRQAsserted() bool {
    return cpu.irqLine
}

/* one bus cycle */
func (cpu *CPUState) read(address uint16) byte {
    cpu.cycle += 1
    return cpu.Bus.Read(address)
}

func (cpu *CPUState) write(address uint16, value byte){
    cpu.cycle += 1
    cpu.Bus.Write(address, value)
}

func (cpu *CPUState) readWord(address uint16) uint16 {
    low := uint16(cpu.read(address))
    high := uint16(cpu.read(address + 1))
    return (high << 8) | low
}

/* read the byte at PC and move past it */
func (cpu *CPUState) fetch() byte {
    value := cpu.read(cpu.PC)
    cpu.PC += 1
    if cpu.record != nil && len(cpu.record.Bytes) < cap(cpu.record.Bytes) {
        cpu.record.Bytes = append(cpu.record.Bytes, value)
    }
    return value
}

/* the cpu reads the next byte even when an instruction has no operand */
func (cpu *CPUState) dummyFetch() {
    cpu.read(cpu.PC)
}

func (cpu *CPUState) push(value byte) {
    cpu.write(StackBase + uint16(cpu.SP), value)
    cpu.SP -= 1
}

func (cpu *CPUState) pull() byte {
    cpu.SP += 1
    return cpu.read(StackBase + uint16(cpu.SP))
}

/* the read the cpu does while it increments S before a pull */
func (cpu *CPUState) dummyStackRead() {
    cpu.read(StackBase + uint16(cpu.SP))
}

func (cpu *CPUState) interrupt(vector uint16) {
    cpu.dummyFetch()
    cpu.dummyFetch()
    cpu.push(byte(cpu.PC >> 8))
    cpu.push(byte(cpu.PC & 0xff))
    /* hardware interrupts push B clear */
    cpu.push((cpu.status &^ FlagBreak) | FlagUnused)
    cpu.SetInterruptDisableFlag(true)
    cpu.PC = cpu.readWord(vector)
}

/* Execute one unit of work: either service a pending interrupt or run a
 * single instruction. The cpu state is consistent when this returns.
 */
func (cpu *CPUState) Step() error {
    if cpu.halted {
        return ErrHalted
    }

    if cpu.nmiPending {
        cpu.nmiPending = false
        if cpu.Debug > 0 {
            log.Printf("cpu: nmi at PC 0x%x", cpu.PC)
        }
        cpu.interrupt(NMIVector)
        return nil
    }

    if cpu.irqLine && !cpu.GetInterruptDisableFlag() {
        if cpu.Debug > 0 {
            log.Printf("cpu: irq at PC 0x%x", cpu.PC)
        }
        cpu.interrupt(IRQVector)
        return nil
    }

    pc := cpu.PC
    before := cpu.Snapshot()
    opcode := cpu.fetch()
    instruction := &instructionTable[opcode]

    tracing := cpu.Tracer != nil && cpu.Tracer.Enabled()
    if tracing {
        cpu.record = cpu.Tracer.begin(cpu, before, instruction, opcode)
    }

    if cpu.Debug > 0 {
        log.Printf("PC: 0x%x Execute instruction %v A:%X X:%X Y:%X P:%X SP:%X CYC:%v\n", pc, instruction.Mnemonic(), cpu.A, cpu.X, cpu.Y, cpu.status, cpu.SP, cpu.cycle)
    }

    cpu.execute(instruction)

    if tracing {
        cpu.Tracer.commit(cpu.record)
        cpu.record = nil
    }

    return nil
}

/* step count times, stopping early on an error */
func (cpu *CPUState) Run(count int) error {
    for i := 0; i < count; i++ {
        err := cpu.Step()
        if err != nil {
            return err
        }
    }
    return nil
}

/* Step until done returns true, checking before every step. Returns the
 * number of steps taken. limit <= 0 means no limit, which only makes sense
 * when the caller knows the condition will be reached.
 */
func (cpu *CPUState) StepUntil(done func(*CPUState) bool, limit int) (int, error) {
    steps := 0
    for !done(cpu) {
        if limit > 0 && steps >= limit {
            return steps, fmt.Errorf("condition not reached after %v steps at PC 0x%04x", steps, cpu.PC)
        }
        err := cpu.Step()
        if err != nil {
            return steps, err
        }
        steps += 1
    }
    return steps, nil
}
