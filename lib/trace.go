package lib

import (
    "bufio"
    "fmt"
    "io"
    "strings"
)

type TraceFormat int

const (
    /* Mesen trace logger layout */
    TraceMesen TraceFormat = iota
    /* nestest.log layout */
    TraceNestest
)

func TraceFormatByName(name string) (TraceFormat, error) {
    switch strings.ToLower(name) {
        case "mesen": return TraceMesen, nil
        case "nestest": return TraceNestest, nil
    }
    return TraceMesen, fmt.Errorf("unknown trace format '%v'", name)
}

func (format TraceFormat) String() string {
    switch format {
        case TraceMesen: return "mesen"
        case TraceNestest: return "nestest"
    }
    return fmt.Sprintf("format(%d)", int(format))
}

/* where the video timing columns of a trace line come from */
type TraceClock interface {
    Timing(cycle uint64) (frame uint64, scanline int, dot int)
}

const (
    DotsPerScanline = 341
    ScanlinesPerFrame = 262
)

/* derives ppu position from the cpu cycle count, three dots per cycle */
type NTSCClock struct {
}

func (clock NTSCClock) Timing(cycle uint64) (uint64, int, int) {
    dots := cycle * 3
    dot := int(dots % DotsPerScanline)
    scanline := int((dots / DotsPerScanline) % ScanlinesPerFrame)
    frame := dots / (DotsPerScanline * ScanlinesPerFrame)
    return frame, scanline, dot
}

/* one executed instruction, with the registers as they were before it ran */
type TraceRecord struct {
    PC uint16
    Bytes []byte
    Instruction *Instruction
    Annotation string
    Registers Snapshot
    Frame uint64
    Scanline int
    Dot int
}

func (record *TraceRecord) Disassembly() string {
    return record.disassembly(record.Instruction.Mnemonic())
}

/* nestest.log spells isc as isb */
func nestestMnemonic(instruction *Instruction) string {
    if instruction.Operation == OpISC {
        return "ISB"
    }
    return instruction.Mnemonic()
}

func (record *TraceRecord) disassembly(name string) string {
    var operands []byte
    if len(record.Bytes) > 1 {
        operands = record.Bytes[1:]
    }
    text := disassembleNamed(name, record.Instruction, record.PC, operands)
    if record.Annotation != "" {
        text = text + " " + record.Annotation
    }
    return text
}

func (record *TraceRecord) rawBytes() string {
    var parts []string
    for _, value := range record.Bytes {
        parts = append(parts, fmt.Sprintf("%02X", value))
    }
    return strings.Join(parts, " ")
}

func (record *TraceRecord) Format(format TraceFormat) string {
    registers := record.Registers
    switch format {
        case TraceNestest:
            marker := ' '
            if record.Instruction.Illegal {
                marker = '*'
            }
            return fmt.Sprintf("%04X  %-9s%c%-32sA:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d",
                               record.PC, record.rawBytes(), marker, record.disassembly(nestestMnemonic(record.Instruction)),
                               registers.A, registers.X, registers.Y, registers.Status, registers.SP,
                               record.Scanline, record.Dot, registers.Cycle)
        default:
            return fmt.Sprintf("%04X  %-10s%-32sA:%02X X:%02X Y:%02X S:%02X P:%s V:%-3d H:%-3d Fr:%d Cycle:%d",
                               record.PC, record.rawBytes(), record.Disassembly(),
                               registers.A, registers.X, registers.Y, registers.SP, FlagString(registers.Status),
                               record.Scanline, record.Dot, record.Frame, registers.Cycle)
    }
}

/* A bounded trace buffer. Once full the oldest record is dropped. Nothing is
 * recorded while disabled.
 */
type Tracer struct {
    Format TraceFormat
    Clock TraceClock

    enabled bool
    records []TraceRecord
    start int
    count int
}

const DefaultTraceCapacity = 30000

func NewTracer() *Tracer {
    return &Tracer{
        Format: TraceMesen,
        Clock: NTSCClock{},
    }
}

/* start recording into an empty buffer of the given size */
func (tracer *Tracer) Enable(capacity int){
    if capacity <= 0 {
        capacity = DefaultTraceCapacity
    }
    tracer.records = make([]TraceRecord, capacity)
    tracer.start = 0
    tracer.count = 0
    tracer.enabled = true
}

/* stop recording, the buffered records are kept */
func (tracer *Tracer) Disable(){
    tracer.enabled = false
}

func (tracer *Tracer) Enabled() bool {
    return tracer.enabled
}

func (tracer *Tracer) Capacity() int {
    return len(tracer.records)
}

func (tracer *Tracer) Len() int {
    return tracer.count
}

func (tracer *Tracer) Clear(){
    tracer.start = 0
    tracer.count = 0
}

func (tracer *Tracer) timing(cycle uint64) (uint64, int, int) {
    if tracer.Clock == nil {
        return NTSCClock{}.Timing(cycle)
    }
    return tracer.Clock.Timing(cycle)
}

/* called after the opcode fetch, the operand bytes are filled in as the cpu reads them */
func (tracer *Tracer) begin(cpu *CPUState, before Snapshot, instruction *Instruction, opcode byte) *TraceRecord {
    record := &TraceRecord{
        PC: before.PC,
        Bytes: make([]byte, 0, instruction.Length()),
        Instruction: instruction,
        Registers: before,
    }
    record.Bytes = append(record.Bytes, opcode)
    record.Frame, record.Scanline, record.Dot = tracer.timing(before.Cycle)

    operands := make([]byte, instruction.Mode.Operands())
    if peekable(cpu.Bus) {
        for i := range operands {
            operands[i], _ = peek(cpu.Bus, before.PC + 1 + uint16(i))
        }
        record.Annotation = annotate(cpu.Bus, before, instruction, operands)
    }

    return record
}

func peekable(bus Bus) bool {
    _, ok := bus.(Peeker)
    return ok
}

func (tracer *Tracer) commit(record *TraceRecord){
    if !tracer.enabled || len(tracer.records) == 0 || record == nil {
        return
    }
    if tracer.count < len(tracer.records) {
        tracer.records[(tracer.start + tracer.count) % len(tracer.records)] = *record
        tracer.count += 1
    } else {
        tracer.records[tracer.start] = *record
        tracer.start = (tracer.start + 1) % len(tracer.records)
    }
}

/* buffered records, oldest first */
func (tracer *Tracer) Records() []TraceRecord {
    out := make([]TraceRecord, 0, tracer.count)
    for i := 0; i < tracer.count; i++ {
        out = append(out, tracer.records[(tracer.start + i) % len(tracer.records)])
    }
    return out
}

func (tracer *Tracer) Lines() []string {
    var out []string
    for _, record := range tracer.Records() {
        out = append(out, record.Format(tracer.Format))
    }
    return out
}

/* write the buffered lines and empty the buffer */
func (tracer *Tracer) Flush(writer io.Writer) error {
    buffered := bufio.NewWriter(writer)
    for _, line := range tracer.Lines() {
        _, err := buffered.WriteString(line + "\n")
        if err != nil {
            return err
        }
    }
    err := buffered.Flush()
    if err != nil {
        return err
    }
    tracer.Clear()
    return nil
}

/* the trace line for the instruction at PC, without executing it */
func (cpu *CPUState) LogLine() (string, error) {
    opcode, ok := peek(cpu.Bus, cpu.PC)
    if !ok {
        return "", fmt.Errorf("bus does not support peeking")
    }

    instruction := &instructionTable[opcode]
    before := cpu.Snapshot()

    tracer := cpu.Tracer
    if tracer == nil {
        tracer = NewTracer()
    }

    record := tracer.begin(cpu, before, instruction, opcode)
    for i := 1; i < instruction.Length(); i++ {
        value, _ := peek(cpu.Bus, cpu.PC + uint16(i))
        record.Bytes = append(record.Bytes, value)
    }

    return record.Format(tracer.Format), nil
}
