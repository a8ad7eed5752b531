package harte

/* Runs single step conformance vectors in the format of Tom Harte's
 * ProcessorTests / SingleStepTests: an initial machine state, the state after
 * one instruction and every bus cycle the instruction performed.
 *   https://github.com/SingleStepTests/65x02
 */

import (
    "encoding/json"
    "fmt"
    "maps"
    "strings"

    nes "github.com/kazzmir/nes6502/lib"
)

type State struct {
    PC uint16 `json:"pc"`
    S byte `json:"s"`
    A byte `json:"a"`
    X byte `json:"x"`
    Y byte `json:"y"`
    P byte `json:"p"`
    /* sparse memory, [address, value] pairs */
    RAM [][2]int `json:"ram"`
}

func (state *State) Snapshot() nes.Snapshot {
    return nes.Snapshot{
        A: state.A,
        X: state.X,
        Y: state.Y,
        SP: state.S,
        PC: state.PC,
        Status: state.P,
    }
}

/* one bus cycle, serialized as [address, value, "read"|"write"] */
type Cycle struct {
    Address uint16
    Value byte
    Kind nes.AccessKind
}

func (cycle Cycle) String() string {
    return fmt.Sprintf("%04X %02X %v", cycle.Address, cycle.Value, cycle.Kind)
}

func parseKind(kind string) (nes.AccessKind, error) {
    switch strings.ToLower(kind) {
        case "read": return nes.AccessRead, nil
        case "write": return nes.AccessWrite, nil
    }
    return nes.AccessNone, fmt.Errorf("unknown cycle kind '%v'", kind)
}

func (cycle *Cycle) UnmarshalJSON(data []byte) error {
    var raw []json.RawMessage
    err := json.Unmarshal(data, &raw)
    if err != nil {
        return err
    }
    if len(raw) != 3 {
        return fmt.Errorf("cycle should have 3 elements but has %v", len(raw))
    }

    var address uint16
    var value byte
    var kind string
    err = json.Unmarshal(raw[0], &address)
    if err != nil {
        return fmt.Errorf("cycle address: %w", err)
    }
    err = json.Unmarshal(raw[1], &value)
    if err != nil {
        return fmt.Errorf("cycle value: %w", err)
    }
    err = json.Unmarshal(raw[2], &kind)
    if err != nil {
        return fmt.Errorf("cycle kind: %w", err)
    }

    cycle.Kind, err = parseKind(kind)
    if err != nil {
        return err
    }
    cycle.Address = address
    cycle.Value = value
    return nil
}

func (cycle Cycle) MarshalJSON() ([]byte, error) {
    return json.Marshal([]any{cycle.Address, cycle.Value, cycle.Kind.String()})
}

type Vector struct {
    Name string `json:"name"`
    Initial State `json:"initial"`
    Final State `json:"final"`
    Cycles []Cycle `json:"cycles"`
}

type Status int

const (
    Pass Status = iota
    Mismatch
    Unsupported
)

func (status Status) String() string {
    switch status {
        case Pass: return "pass"
        case Mismatch: return "mismatch"
        case Unsupported: return "unsupported"
    }
    return fmt.Sprintf("status(%d)", int(status))
}

/* one field where the cpu disagreed with the vector */
type Difference struct {
    Field string
    Expected string
    Actual string
}

func (difference Difference) String() string {
    return fmt.Sprintf("%v: expected %v got %v", difference.Field, difference.Expected, difference.Actual)
}

type Result struct {
    Name string
    Opcode byte
    Status Status
    /* why an unsupported vector was not run */
    Reason string
    Differences []Difference

    /* the state the cpu finished in, left empty for unsupported vectors */
    Final nes.Snapshot
    /* every address of the memory image with its final value */
    RAM map[uint16]byte
    Accesses []nes.BusAccess
}

func (result *Result) String() string {
    switch result.Status {
        case Unsupported:
            return fmt.Sprintf("%v: unsupported, %v", result.Name, result.Reason)
        case Mismatch:
            var parts []string
            for _, difference := range result.Differences {
                parts = append(parts, difference.String())
            }
            return fmt.Sprintf("%v: %v", result.Name, strings.Join(parts, "; "))
    }
    return fmt.Sprintf("%v: pass", result.Name)
}

func (result *Result) differ(field string, expected any, actual any){
    result.Differences = append(result.Differences, Difference{
        Field: field,
        Expected: fmt.Sprint(expected),
        Actual: fmt.Sprint(actual),
    })
}

type Options struct {
    Variant nes.Variant
    /* the vectors were recorded on a cpu with a working decimal mode */
    DecimalCorpus bool
}

func hex8(value byte) string {
    return fmt.Sprintf("0x%02x", value)
}

func hex16(value uint16) string {
    return fmt.Sprintf("0x%04x", value)
}

/* the opcode byte at the initial PC */
func (vector *Vector) Opcode() byte {
    for _, pair := range vector.Initial.RAM {
        if uint16(pair[0]) == vector.Initial.PC {
            return byte(pair[1])
        }
    }
    return 0
}

/* returns a non-empty reason when the vector asks for something this cpu does not do */
func unsupported(vector *Vector, instruction nes.Instruction, options Options) string {
    if instruction.Operation == nes.OpJAM {
        return fmt.Sprintf("%v locks up the cpu", instruction.Mnemonic())
    }
    if vector.Initial.P & nes.FlagUnused == 0 {
        return fmt.Sprintf("initial status %v has bit 5 clear", hex8(vector.Initial.P))
    }
    if options.DecimalCorpus && !options.Variant.Decimal &&
       vector.Initial.P & nes.FlagDecimal != 0 && instruction.Operation.DecimalSensitive() {
        return fmt.Sprintf("%v in decimal mode, %v has no decimal unit", instruction.Mnemonic(), options.Variant.Name)
    }
    return ""
}

/* run a single vector: seed the state, execute one instruction and compare */
func Run(vector *Vector, options Options) Result {
    opcode := vector.Opcode()
    instruction := nes.Decode(opcode)
    result := Result{
        Name: vector.Name,
        Opcode: opcode,
    }

    reason := unsupported(vector, instruction, options)
    if reason != "" {
        result.Status = Unsupported
        result.Reason = reason
        return result
    }

    bus := newImageBus(vector)
    recorder := nes.NewRecordingBus(bus)
    cpu := nes.NewCPU(recorder, options.Variant)
    cpu.Restore(vector.Initial.Snapshot())

    err := cpu.Step()
    if err != nil {
        result.differ("step", "no error", err)
    }

    result.Final = cpu.Snapshot()
    result.RAM = maps.Clone(bus.memory)
    result.Accesses = recorder.Accesses

    compare(&result, vector, cpu, bus, recorder.Accesses)

    if len(result.Differences) > 0 {
        result.Status = Mismatch
    } else {
        result.Status = Pass
    }
    return result
}

func compare(result *Result, vector *Vector, cpu *nes.CPUState, bus *imageBus, accesses []nes.BusAccess){
    final := vector.Final
    if cpu.PC != final.PC {
        result.differ("pc", hex16(final.PC), hex16(cpu.PC))
    }
    if cpu.SP != final.S {
        result.differ("s", hex8(final.S), hex8(cpu.SP))
    }
    if cpu.A != final.A {
        result.differ("a", hex8(final.A), hex8(cpu.A))
    }
    if cpu.X != final.X {
        result.differ("x", hex8(final.X), hex8(cpu.X))
    }
    if cpu.Y != final.Y {
        result.differ("y", hex8(final.Y), hex8(cpu.Y))
    }
    if cpu.Status() != final.P {
        result.differ("p", nes.FlagString(final.P), nes.FlagString(cpu.Status()))
    }

    for _, pair := range final.RAM {
        address := uint16(pair[0])
        expected := byte(pair[1])
        actual := bus.memory[address]
        if actual != expected {
            result.differ(fmt.Sprintf("ram[%v]", hex16(address)), hex8(expected), hex8(actual))
        }
    }

    for _, fault := range bus.faults {
        result.differ("bus", "access inside the memory image", fault)
    }

    if len(accesses) != len(vector.Cycles) {
        result.differ("cycle count", len(vector.Cycles), len(accesses))
    }
    for i := 0; i < len(accesses) && i < len(vector.Cycles); i++ {
        expected := vector.Cycles[i]
        actual := accesses[i]
        if actual.Address != expected.Address || actual.Value != expected.Value || actual.Kind != expected.Kind {
            result.differ(fmt.Sprintf("cycle %v", i), expected, actual)
        }
    }
}

/* The memory the vector describes and nothing else. Touching an address the
 * vector never mentions is recorded as a fault and reads back as 0.
 */
type imageBus struct {
    memory map[uint16]byte
    faults []nes.BusAccess
}

func newImageBus(vector *Vector) *imageBus {
    bus := &imageBus{
        memory: make(map[uint16]byte),
    }
    for _, pair := range vector.Final.RAM {
        bus.memory[uint16(pair[0])] = 0
    }
    for _, cycle := range vector.Cycles {
        if _, ok := bus.memory[cycle.Address]; !ok {
            bus.memory[cycle.Address] = 0
        }
    }
    for _, pair := range vector.Initial.RAM {
        bus.memory[uint16(pair[0])] = byte(pair[1])
    }
    return bus
}

func (bus *imageBus) Read(address uint16) byte {
    value, ok := bus.memory[address]
    if !ok {
        bus.faults = append(bus.faults, nes.BusAccess{Address: address, Kind: nes.AccessRead})
    }
    return value
}

func (bus *imageBus) Write(address uint16, value byte){
    if _, ok := bus.memory[address]; !ok {
        bus.faults = append(bus.faults, nes.BusAccess{Address: address, Value: value, Kind: nes.AccessWrite})
    }
    bus.memory[address] = value
}

func (bus *imageBus) Peek(address uint16) byte {
    return bus.memory[address]
}
