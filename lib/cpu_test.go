package lib

import (
    "bytes"
    "io"
    "math/rand"
    "testing"
)

func readAllInstructions(reader *InstructionReader) ([]DecodedInstruction, error) {
    var out []DecodedInstruction

    for {
        instruction, err := reader.ReadInstruction()
        if err != nil {
            return out, err
        }

        out = append(out, instruction)
    }
}

func checkInstructions(test *testing.T, instructions []DecodedInstruction, kinds []InstructionType) {
    if len(kinds) != len(instructions) {
        test.Fatalf("unequal number of instructions %v vs expected %v", len(instructions), len(kinds))
    }

    for i := 0; i < len(instructions); i++ {
        if instructions[i].Kind != kinds[i] {
            test.Fatalf("invalid instruction %v: %v vs %v\n", i, instructions[i].String(), kinds[i])
        }
    }
}

/* a cpu over flat memory with the program at origin and the reset vector pointing at it */
func makeTestCPU(variant Variant, origin uint16, program []byte) (*CPUState, *Memory) {
    memory := NewMemory(0)
    memory.Load(origin, program)
    memory.SetVector(ResetVector, origin)
    cpu := NewCPU(memory, variant)
    cpu.PowerOn()
    return cpu, memory
}

func TestCPUDecode(test *testing.T){
    bytes := []byte{0xa9, 0x01, 0x8d, 0x00, 0x02, 0xa9, 0x05, 0x8d, 0x01, 0x02, 0xa9, 0x08, 0x8d, 0x02, 0x02}

    reader := NewInstructionReader(bytes)
    instructions, err := readAllInstructions(reader)

    if err != io.EOF {
        test.Fatalf("could not read instructions: %v", err)
    }

    checkInstructions(test, instructions, []InstructionType{
        Instruction_LDA_immediate,
        Instruction_STA_absolute,
        Instruction_LDA_immediate,
        Instruction_STA_absolute,
        Instruction_LDA_immediate,
        Instruction_STA_absolute,
    })

    word, err := instructions[1].OperandWord()
    if err != nil || word != 0x200 {
        test.Fatalf("expected operand 0x200 but got 0x%x: %v", word, err)
    }

    if instructions[1].Disassemble(0x600) != "STA $0200" {
        test.Fatalf("unexpected disassembly '%v'", instructions[1].Disassemble(0x600))
    }
}

func TestDecodeTotal(test *testing.T){
    for opcode := 0; opcode < 256; opcode++ {
        instruction := Decode(byte(opcode))
        if int(instruction.Kind) != opcode {
            test.Fatalf("opcode 0x%02x decoded as 0x%02x", opcode, byte(instruction.Kind))
        }
        if instruction.Name == "" {
            test.Fatalf("opcode 0x%02x has no name", opcode)
        }
        if instruction.Cycles < 2 || instruction.Cycles > 8 {
            test.Fatalf("opcode 0x%02x has a strange cycle count %v", opcode, instruction.Cycles)
        }
        if Decode(byte(opcode)) != instruction {
            test.Fatalf("decoding 0x%02x is not deterministic", opcode)
        }
    }

    official := 0
    for _, instruction := range GetInstructionTable() {
        if !instruction.Illegal {
            official += 1
        }
    }

    if official != 151 {
        test.Fatalf("expected 151 official opcodes but found %v", official)
    }

    table := GetInstructionTable()
    table[Instruction_LDA_immediate].Cycles = 99
    if Decode(Instruction_LDA_immediate).Cycles != 2 {
        test.Fatalf("changing a copy of the table changed the decoder")
    }
}

func TestCPUSimple(test *testing.T){
    program := []byte{
        0xa9, 0x01,       // lda #$01
        0x8d, 0x00, 0x02, // sta $200
        0xa9, 0x05,       // lda #$05
        0x8d, 0x01, 0x02, // sta $201
        0xa9, 0x08,       // lda #$08
        0x8d, 0x02, 0x02, // sta $202
    }

    cpu, memory := makeTestCPU(Ricoh2A03, 0x600, program)

    err := cpu.Run(6)
    if err != nil {
        test.Fatalf("could not run: %v", err)
    }

    if cpu.A != 0x8 {
        test.Fatalf("A register expected to be 0x8 but was 0x%x\n", cpu.A)
    }

    if cpu.X != 0x0 {
        test.Fatalf("X register expected to be 0x0 but was 0x%x\n", cpu.X)
    }

    if cpu.PC != 0x60f {
        test.Fatalf("PC register expected to be 0x60f but was 0x%x\n", cpu.PC)
    }

    if memory.Data[0x200] != 0x1 || memory.Data[0x201] != 0x5 || memory.Data[0x202] != 0x8 {
        test.Fatalf("unexpected memory contents %v", memory.Data[0x200:0x203])
    }

    /* 7 for reset, 2+4 three times */
    if cpu.Cycles() != 7 + 18 {
        test.Fatalf("expected 25 cycles but took %v", cpu.Cycles())
    }
}

func TestCPUSimple2(test *testing.T){
    program := []byte{
        0xa9, 0xc0, // LDA #$c0
        0xaa,       // tax
        0xe8,       // inx
        0x69, 0xc4, // adc #$c4
    }

    cpu, _ := makeTestCPU(Ricoh2A03, 0x600, program)

    err := cpu.Run(4)
    if err != nil {
        test.Fatalf("could not run: %v", err)
    }

    if cpu.A != 0x84 {
        test.Fatalf("A register expected to be 0x84 but was 0x%x\n", cpu.A)
    }

    if cpu.X != 0xc1 {
        test.Fatalf("X register expected to be 0xc1 but was 0x%x\n", cpu.X)
    }

    if !cpu.GetCarryFlag() || !cpu.GetNegativeFlag() || cpu.GetOverflowFlag() || cpu.GetZeroFlag() {
        test.Fatalf("unexpected flags %v", FlagString(cpu.Status()))
    }

    if cpu.PC != 0x606 {
        test.Fatalf("PC register expected to be 0x606 but was 0x%x\n", cpu.PC)
    }
}

func TestCPUSimpleBranch(test *testing.T){
    program := []byte{
        0xa2, 0x08, // ldx #$08
        0xca,       // dex
        0x8e, 0x00, 0x02, // stx $200
        0xe0, 0x03, // cpx #$03
        0xd0, 0xf8, // bne 0xf8
        0x8e, 0x01, 0x02, // stx $201
        0x00, // brk
    }

    reader := NewInstructionReader(program)
    instructions, _ := readAllInstructions(reader)
    checkInstructions(test, instructions, []InstructionType{
        Instruction_LDX_immediate,
        Instruction_DEX,
        Instruction_STX_absolute,
        Instruction_CPX_immediate,
        Instruction_BNE,
        Instruction_STX_absolute,
        Instruction_BRK,
    })

    cpu, memory := makeTestCPU(Ricoh2A03, 0x600, program)

    _, err := cpu.StepUntil(func(cpu *CPUState) bool {
        return cpu.PC == 0x60d
    }, 1000)
    if err != nil {
        test.Fatalf("loop did not finish: %v", err)
    }

    if cpu.X != 3 || memory.Data[0x200] != 3 || memory.Data[0x201] != 3 {
        test.Fatalf("expected X and memory to be 3: X=%v 0x200=%v 0x201=%v", cpu.X, memory.Data[0x200], memory.Data[0x201])
    }
}

func TestStatusUnusedBit(test *testing.T){
    cpu := NewCPU(NewMemory(0), MOS6502)
    cpu.SetStatus(0)
    if cpu.Status() != FlagUnused {
        test.Fatalf("status should read back 0x20 but was 0x%x", cpu.Status())
    }

    cpu.SetCarryFlag(true)
    cpu.SetZeroFlag(true)
    cpu.SetNegativeFlag(true)
    if cpu.Status() != FlagUnused | FlagCarry | FlagZero | FlagNegative {
        test.Fatalf("flag setters disturbed other bits: 0x%x", cpu.Status())
    }
    cpu.SetZeroFlag(false)
    if cpu.GetZeroFlag() || !cpu.GetCarryFlag() {
        test.Fatalf("clearing zero changed carry: 0x%x", cpu.Status())
    }

    /* PLP pulling all zeros */
    program := []byte{0xa9, 0x00, 0x48, 0x28} // lda #0, pha, plp
    cpu, _ = makeTestCPU(MOS6502, 0x600, program)
    cpu.Run(3)
    if cpu.Status() != FlagUnused {
        test.Fatalf("after plp of 0 status should be 0x20 but was 0x%x", cpu.Status())
    }
}

/* the nestest/Mesen view of the cpu after power on */
func TestPowerOn(test *testing.T){
    cpu, _ := makeTestCPU(Ricoh2A03, 0xc000, nil)
    if cpu.PC != 0xc000 || cpu.SP != 0xfd || cpu.Status() != 0x24 || cpu.Cycles() != 7 {
        test.Fatalf("unexpected power on state %v", cpu)
    }
}

func TestDecimalMode(test *testing.T){
    type decimalCase struct {
        opcode byte
        a byte
        value byte
        carry bool
        result byte
        carryOut bool
    }

    cases := []decimalCase{
        {Instruction_ADC_immediate, 0x12, 0x34, false, 0x46, false},
        {Instruction_ADC_immediate, 0x58, 0x46, true, 0x05, true},
        {Instruction_ADC_immediate, 0x99, 0x01, false, 0x00, true},
        {Instruction_SBC_immediate, 0x46, 0x12, true, 0x34, true},
        {Instruction_SBC_immediate, 0x40, 0x13, true, 0x27, true},
        {Instruction_SBC_immediate, 0x32, 0x02, false, 0x29, true},
        {Instruction_SBC_immediate, 0x00, 0x01, true, 0x99, false},
    }

    for _, check := range cases {
        cpu, _ := makeTestCPU(MOS6502, 0x600, []byte{check.opcode, check.value})
        cpu.A = check.a
        cpu.SetDecimalFlag(true)
        cpu.SetCarryFlag(check.carry)
        cpu.Step()

        if cpu.A != check.result || cpu.GetCarryFlag() != check.carryOut {
            test.Errorf("%02x: A=0x%02x value=0x%02x carry=%v: expected 0x%02x carry %v but got 0x%02x carry %v",
                        check.opcode, check.a, check.value, check.carry, check.result, check.carryOut, cpu.A, cpu.GetCarryFlag())
        }
    }
}

/* 0x0a is not a valid bcd digit, the chip produces 0x10 with every flag clear */
func TestDecimalInvalidNibble(test *testing.T){
    cpu, _ := makeTestCPU(MOS6502, 0x600, []byte{0x69, 0x00}) // adc #$00
    cpu.A = 0x0a
    cpu.SetDecimalFlag(true)
    cpu.SetCarryFlag(false)
    cpu.Step()

    if cpu.A != 0x10 {
        test.Fatalf("expected A=0x10 but got 0x%x", cpu.A)
    }
    if cpu.GetCarryFlag() || cpu.GetZeroFlag() || cpu.GetNegativeFlag() || cpu.GetOverflowFlag() {
        test.Fatalf("expected C Z N V clear but status is %v", FlagString(cpu.Status()))
    }

    /* 0x99 + 0x01 is 0x00 in bcd but Z follows the binary sum */
    cpu, _ = makeTestCPU(MOS6502, 0x600, []byte{0x69, 0x01})
    cpu.A = 0x99
    cpu.SetDecimalFlag(true)
    cpu.Step()
    if cpu.A != 0x00 || cpu.GetZeroFlag() || !cpu.GetCarryFlag() {
        test.Fatalf("expected A=0 with Z clear and C set but got 0x%x %v", cpu.A, FlagString(cpu.Status()))
    }

    /* the 2A03 has no decimal mode */
    cpu, _ = makeTestCPU(Ricoh2A03, 0x600, []byte{0x69, 0x00})
    cpu.A = 0x0a
    cpu.SetDecimalFlag(true)
    cpu.Step()
    if cpu.A != 0x0a {
        test.Fatalf("2A03 should add in binary but got 0x%x", cpu.A)
    }
}

func TestArr(test *testing.T){
    cpu, _ := makeTestCPU(Ricoh2A03, 0x600, []byte{0x6b, 0xff}) // arr #$ff
    cpu.A = 0xff
    cpu.SetCarryFlag(true)
    cpu.Step()
    if cpu.A != 0xff || !cpu.GetCarryFlag() || cpu.GetOverflowFlag() || !cpu.GetNegativeFlag() {
        test.Fatalf("unexpected arr result 0x%x %v", cpu.A, FlagString(cpu.Status()))
    }
}

/* each case lists the exact bus cycles the instruction must produce */
func TestBusAccessOrder(test *testing.T){
    type accessCase struct {
        name string
        program []byte
        x byte
        accesses []BusAccess
    }

    read := func(address uint16, value byte) BusAccess {
        return BusAccess{Address: address, Value: value, Kind: AccessRead}
    }
    write := func(address uint16, value byte) BusAccess {
        return BusAccess{Address: address, Value: value, Kind: AccessWrite}
    }

    cases := []accessCase{
        {"lda abs,x page cross", []byte{0xbd, 0xff, 0x10}, 1, []BusAccess{
            read(0x600, 0xbd), read(0x601, 0xff), read(0x602, 0x10), read(0x1000, 0), read(0x1100, 0),
        }},
        {"lda abs,x same page", []byte{0xbd, 0x00, 0x10}, 1, []BusAccess{
            read(0x600, 0xbd), read(0x601, 0x00), read(0x602, 0x10), read(0x1001, 0),
        }},
        {"sta abs,x", []byte{0x9d, 0x00, 0x02}, 1, []BusAccess{
            read(0x600, 0x9d), read(0x601, 0x00), read(0x602, 0x02), read(0x201, 0), write(0x201, 0),
        }},
        {"inc zero page", []byte{0xe6, 0x10}, 0, []BusAccess{
            read(0x600, 0xe6), read(0x601, 0x10), read(0x10, 0), write(0x10, 0), write(0x10, 1),
        }},
        {"lda zero page,x wraps", []byte{0xb5, 0xff}, 2, []BusAccess{
            read(0x600, 0xb5), read(0x601, 0xff), read(0xff, 0), read(0x01, 0),
        }},
        {"nop implied", []byte{0xea}, 0, []BusAccess{
            read(0x600, 0xea), read(0x601, 0),
        }},
        {"pha", []byte{0x48}, 0, []BusAccess{
            read(0x600, 0x48), read(0x601, 0), write(0x1fd, 0),
        }},
    }

    for _, check := range cases {
        cpu, memory := makeTestCPU(Ricoh2A03, 0x600, check.program)
        recorder := NewRecordingBus(memory)
        cpu.Bus = recorder
        cpu.X = check.x

        before := cpu.Cycles()
        cpu.Step()

        if len(recorder.Accesses) != len(check.accesses) {
            test.Fatalf("%v: expected %v accesses but got %v: %v", check.name, len(check.accesses), len(recorder.Accesses), recorder.Accesses)
        }
        for i := range check.accesses {
            if recorder.Accesses[i] != check.accesses[i] {
                test.Fatalf("%v: access %v expected %v but got %v", check.name, i, check.accesses[i], recorder.Accesses[i])
            }
        }
        if cpu.Cycles() - before != uint64(len(check.accesses)) {
            test.Fatalf("%v: cycle count does not match bus accesses", check.name)
        }
    }
}

func branchTaken(status byte, op Operation) bool {
    switch op {
        case OpBCC: return status & FlagCarry == 0
        case OpBCS: return status & FlagCarry != 0
        case OpBNE: return status & FlagZero == 0
        case OpBEQ: return status & FlagZero != 0
        case OpBPL: return status & FlagNegative == 0
        case OpBMI: return status & FlagNegative != 0
        case OpBVC: return status & FlagOverflow == 0
        case OpBVS: return status & FlagOverflow != 0
    }
    return false
}

/* the cost an instruction should have given the state before it runs */
func expectedCycles(cpu *CPUState, memory *Memory, instruction Instruction) int {
    cycles := instruction.Cycles
    pc := cpu.PC

    word := func(address uint16) uint16 {
        return uint16(memory.Data[address]) | (uint16(memory.Data[address + 1]) << 8)
    }
    crossed := func(base uint16, index byte) bool {
        return ((base + uint16(index)) & 0xff00) != (base & 0xff00)
    }

    if instruction.PageCross {
        switch instruction.Mode {
            case ModeAbsoluteX:
                if crossed(word(pc + 1), cpu.X) {
                    cycles += 1
                }
            case ModeAbsoluteY:
                if crossed(word(pc + 1), cpu.Y) {
                    cycles += 1
                }
            case ModeIndirectY:
                zero := memory.Data[pc + 1]
                base := uint16(memory.Data[zero]) | (uint16(memory.Data[byte(zero + 1)]) << 8)
                if crossed(base, cpu.Y) {
                    cycles += 1
                }
        }
    }

    if instruction.Mode == ModeRelative && branchTaken(cpu.Status(), instruction.Operation) {
        cycles += 1
        next := pc + 2
        target := next + uint16(int16(int8(memory.Data[pc + 1])))
        if (target & 0xff00) != (next & 0xff00) {
            cycles += 1
        }
    }

    return cycles
}

/* Every opcode from random states: the cycle counter moves by exactly the
 * documented cost, that cost equals the number of bus accesses, flags the
 * instruction doesn't own are untouched and bit 5 stays set.
 */
func TestOpcodeInvariants(test *testing.T){
    random := rand.New(rand.NewSource(6502))

    for _, variant := range []Variant{MOS6502, Ricoh2A03} {
        for opcode := 0; opcode < 256; opcode++ {
            instruction := Decode(byte(opcode))
            for iteration := 0; iteration < 40; iteration++ {
                memory := NewMemory(0)
                random.Read(memory.Data[:])

                recorder := NewRecordingBus(memory)
                cpu := NewCPU(recorder, variant)
                cpu.A = byte(random.Intn(256))
                cpu.X = byte(random.Intn(256))
                cpu.Y = byte(random.Intn(256))
                cpu.SP = byte(random.Intn(256))
                cpu.PC = uint16(random.Intn(0x10000))
                cpu.SetStatus(byte(random.Intn(256)))
                cpu.SetCycles(uint64(random.Intn(1000)))
                memory.Data[cpu.PC] = byte(opcode)

                expected := expectedCycles(cpu, memory, instruction)
                status := cpu.Status()
                before := cpu.Cycles()

                err := cpu.Step()
                if err != nil {
                    test.Fatalf("%v opcode 0x%02x: step failed: %v", variant.Name, opcode, err)
                }

                taken := int(cpu.Cycles() - before)
                if taken != expected {
                    test.Fatalf("%v opcode 0x%02x %v: expected %v cycles but took %v", variant.Name, opcode, instruction.Mnemonic(), expected, taken)
                }
                if len(recorder.Accesses) != taken {
                    test.Fatalf("opcode 0x%02x: %v bus accesses for %v cycles", opcode, len(recorder.Accesses), taken)
                }
                if cpu.Status() & FlagUnused == 0 {
                    test.Fatalf("opcode 0x%02x cleared the unused status bit", opcode)
                }
                changed := status ^ cpu.Status()
                if changed & ^instruction.Flags != 0 {
                    test.Fatalf("opcode 0x%02x %v changed flags %08b outside of %08b", opcode, instruction.Mnemonic(), changed, instruction.Flags)
                }
            }
        }
    }
}

func TestInterrupts(test *testing.T){
    memory := NewMemory(Instruction_NOP)
    memory.SetVector(ResetVector, 0x8000)
    memory.SetVector(NMIVector, 0x9000)
    memory.SetVector(IRQVector, 0xa000)
    cpu := NewCPU(memory, Ricoh2A03)
    cpu.PowerOn()

    /* I is set after reset so IRQ is ignored */
    cpu.SetIRQ(true)
    cpu.Step()
    if cpu.PC != 0x8001 {
        test.Fatalf("masked irq should not be serviced, PC is 0x%x", cpu.PC)
    }

    cpu.NMI()
    before := cpu.Cycles()
    cpu.Step()
    if cpu.PC != 0x9000 {
        test.Fatalf("expected PC at nmi vector but was 0x%x", cpu.PC)
    }
    if cpu.Cycles() - before != 7 {
        test.Fatalf("nmi should take 7 cycles, took %v", cpu.Cycles() - before)
    }
    if cpu.SP != 0xfa || memory.Data[0x1fd] != 0x80 || memory.Data[0x1fc] != 0x01 {
        test.Fatalf("unexpected stack after nmi: SP=0x%x %v", cpu.SP, memory.Data[0x1fb:0x1fe])
    }
    if memory.Data[0x1fb] & FlagBreak != 0 || memory.Data[0x1fb] & FlagUnused == 0 {
        test.Fatalf("nmi pushed status 0x%x, B must be clear and bit 5 set", memory.Data[0x1fb])
    }
    if cpu.IsNMIPending() {
        test.Fatalf("nmi should be acknowledged")
    }

    /* unmasked irq */
    cpu.SetInterruptDisableFlag(false)
    cpu.Step()
    if cpu.PC != 0xa000 || !cpu.GetInterruptDisableFlag() {
        test.Fatalf("expected irq to be serviced, PC is 0x%x", cpu.PC)
    }
}

func TestBreakAndReturn(test *testing.T){
    memory := NewMemory(0)
    memory.Load(0x8000, []byte{0x00, 0xff})
    memory.Load(0xa000, []byte{Instruction_RTI})
    memory.SetVector(ResetVector, 0x8000)
    memory.SetVector(IRQVector, 0xa000)
    cpu := NewCPU(memory, Ricoh2A03)
    cpu.PowerOn()

    cpu.Step()
    if cpu.PC != 0xa000 {
        test.Fatalf("brk should jump through the irq vector, PC is 0x%x", cpu.PC)
    }
    if memory.Data[0x1fd] != 0x80 || memory.Data[0x1fc] != 0x02 {
        test.Fatalf("brk should push the address after its padding byte: %v", memory.Data[0x1fc:0x1fe])
    }
    if memory.Data[0x1fb] != 0x34 {
        test.Fatalf("brk should push status with B set, pushed 0x%x", memory.Data[0x1fb])
    }

    cpu.Step()
    if cpu.PC != 0x8002 || cpu.Status() != 0x24 {
        test.Fatalf("rti returned to 0x%x with status 0x%x", cpu.PC, cpu.Status())
    }
}

func TestSubroutine(test *testing.T){
    program := []byte{
        0x20, 0x00, 0x07, // jsr $0700
        0xe8,             // inx
    }
    cpu, memory := makeTestCPU(Ricoh2A03, 0x600, program)
    memory.Load(0x700, []byte{0xa2, 0x41, 0x60}) // ldx #$41, rts

    cpu.Run(4)
    if cpu.X != 0x42 || cpu.PC != 0x604 || cpu.SP != 0xfd {
        test.Fatalf("unexpected state after subroutine: %v", cpu)
    }
}

func TestJumpIndirectPageWrap(test *testing.T){
    cpu, memory := makeTestCPU(Ricoh2A03, 0x600, []byte{Instruction_JMP_indirect, 0xff, 0x10})
    memory.Data[0x10ff] = 0x34
    memory.Data[0x1000] = 0x12
    memory.Data[0x1100] = 0x56

    cpu.Step()
    if cpu.PC != 0x1234 {
        test.Fatalf("jmp ($10ff) should read the high byte from $1000, PC is 0x%x", cpu.PC)
    }
}

func TestJam(test *testing.T){
    cpu, _ := makeTestCPU(Ricoh2A03, 0x600, []byte{Instruction_KIL_1})
    err := cpu.Step()
    if err != nil {
        test.Fatalf("the jam instruction itself should execute: %v", err)
    }
    if !cpu.Halted() {
        test.Fatalf("cpu should be halted")
    }
    cycles := cpu.Cycles()
    err = cpu.Step()
    if err != ErrHalted || cpu.Cycles() != cycles {
        test.Fatalf("a halted cpu should not run: %v", err)
    }
}

/* starting at 0x8059 with a fixed program, one step gives a known state */
func TestSingleStepFrom8059(test *testing.T){
    memory := NewMemory(0)
    memory.Load(0x8059, []byte{
        0xa9, 0x80,       // lda #$80
        0x8d, 0x00, 0x02, // sta $0200
        0x4c, 0x5e, 0x80, // jmp $805e
    })
    cpu := NewCPU(memory, Ricoh2A03)
    cpu.PC = 0x8059
    cpu.SP = 0xfd
    cpu.SetStatus(0x24)
    cpu.SetCycles(7)

    cpu.Step()

    if cpu.PC != 0x805b || cpu.A != 0x80 || cpu.Status() != 0xa4 || cpu.Cycles() != 9 {
        test.Fatalf("unexpected state after one step: %v", cpu)
    }
}

/* a jump to itself must stay put forever */
func TestInfiniteLoop(test *testing.T){
    memory := NewMemory(0)
    memory.Load(0x8059, []byte{
        0xa9, 0x80,       // lda #$80
        0x8d, 0x00, 0x02, // sta $0200
        0x4c, 0x5e, 0x80, // jmp $805e
    })
    cpu := NewCPU(memory, Ricoh2A03)
    cpu.PC = 0x8059

    last := cpu.Cycles()
    for i := 1; i <= 100000; i++ {
        err := cpu.Step()
        if err != nil {
            test.Fatalf("step %v failed: %v", i, err)
        }
        if i > 2 && cpu.PC != 0x805e {
            test.Fatalf("step %v left the loop, PC is 0x%x", i, cpu.PC)
        }
        if cpu.Cycles() < last {
            test.Fatalf("cycle counter went backwards at step %v", i)
        }
        last = cpu.Cycles()
    }

    if memory.Data[0x200] != 0x80 {
        test.Fatalf("sta did not store")
    }
}

func TestSnapshotRoundTrip(test *testing.T){
    cpu, _ := makeTestCPU(MOS6502, 0x600, []byte{0xa9, 0x42})
    cpu.Step()

    var buffer bytes.Buffer
    err := cpu.Snapshot().Serialize(&buffer)
    if err != nil {
        test.Fatalf("could not serialize: %v", err)
    }

    snapshot, err := ReadSnapshot(&buffer)
    if err != nil {
        test.Fatalf("could not read snapshot: %v", err)
    }

    other := NewCPU(NewMemory(0), MOS6502)
    other.Restore(snapshot)
    if other.Snapshot() != cpu.Snapshot() {
        test.Fatalf("restored %v but expected %v", other, cpu)
    }
}
