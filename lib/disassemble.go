package lib

import (
    "bytes"
    "fmt"
    "io"
    "strings"
)

/* An instruction as it appears in a byte stream: the table entry plus the
 * operand bytes that followed the opcode.
 */
type DecodedInstruction struct {
    Instruction
    Operands []byte
}

func (instruction *DecodedInstruction) Length() uint16 {
    return 1 + uint16(len(instruction.Operands))
}

func (instruction *DecodedInstruction) OperandByte() (byte, error) {
    if len(instruction.Operands) != 1 {
        return 0, fmt.Errorf("dont have one operand for %v, only have %v", instruction.Name, len(instruction.Operands))
    }
    return instruction.Operands[0], nil
}

func (instruction *DecodedInstruction) OperandWord() (uint16, error) {
    if len(instruction.Operands) != 2 {
        return 0, fmt.Errorf("dont have two operands for %v, only have %v", instruction.Name, len(instruction.Operands))
    }
    high := instruction.Operands[1]
    low := instruction.Operands[0]
    return (uint16(high) << 8) | uint16(low), nil
}

func (instruction *DecodedInstruction) String() string {
    var out bytes.Buffer
    out.WriteString(instruction.Name)
    for _, operand := range instruction.Operands {
        out.WriteRune(' ')
        out.WriteString(fmt.Sprintf("0x%x", operand))
    }
    return out.String()
}

/* assembler syntax for the instruction located at pc */
func (instruction *DecodedInstruction) Disassemble(pc uint16) string {
    return disassemble(&instruction.Instruction, pc, instruction.Operands)
}

type InstructionReader struct {
    data io.Reader
}

func NewInstructionReader(data []byte) *InstructionReader {
    return &InstructionReader{
        data: bytes.NewReader(data),
    }
}

/* returns io.EOF once the input is exhausted */
func (reader *InstructionReader) ReadInstruction() (DecodedInstruction, error) {
    first := make([]byte, 1)
    _, err := io.ReadFull(reader.data, first)
    if err != nil {
        return DecodedInstruction{}, err
    }

    description := Decode(first[0])
    operands := make([]byte, description.Mode.Operands())
    if len(operands) > 0 {
        _, err = io.ReadFull(reader.data, operands)
        if err != nil {
            return DecodedInstruction{}, fmt.Errorf("unable to read operands for instruction %v: %w", description.Mnemonic(), err)
        }
    }

    return DecodedInstruction{
        Instruction: description,
        Operands: operands,
    }, nil
}

func operandWord(operands []byte) uint16 {
    if len(operands) < 2 {
        return 0
    }
    return (uint16(operands[1]) << 8) | uint16(operands[0])
}

func operandByte(operands []byte) byte {
    if len(operands) < 1 {
        return 0
    }
    return operands[0]
}

func disassemble(instruction *Instruction, pc uint16, operands []byte) string {
    return disassembleNamed(instruction.Mnemonic(), instruction, pc, operands)
}

func disassembleNamed(name string, instruction *Instruction, pc uint16, operands []byte) string {
    switch instruction.Mode {
        case ModeImplied:
            return name
        case ModeAccumulator:
            return name + " A"
        case ModeImmediate:
            return fmt.Sprintf("%v #$%02X", name, operandByte(operands))
        case ModeZeroPage:
            return fmt.Sprintf("%v $%02X", name, operandByte(operands))
        case ModeZeroPageX:
            return fmt.Sprintf("%v $%02X,X", name, operandByte(operands))
        case ModeZeroPageY:
            return fmt.Sprintf("%v $%02X,Y", name, operandByte(operands))
        case ModeAbsolute:
            return fmt.Sprintf("%v $%04X", name, operandWord(operands))
        case ModeAbsoluteX:
            return fmt.Sprintf("%v $%04X,X", name, operandWord(operands))
        case ModeAbsoluteY:
            return fmt.Sprintf("%v $%04X,Y", name, operandWord(operands))
        case ModeIndirect:
            return fmt.Sprintf("%v ($%04X)", name, operandWord(operands))
        case ModeIndirectX:
            return fmt.Sprintf("%v ($%02X,X)", name, operandByte(operands))
        case ModeIndirectY:
            return fmt.Sprintf("%v ($%02X),Y", name, operandByte(operands))
        case ModeRelative:
            target := pc + 2 + uint16(int16(int8(operandByte(operands))))
            return fmt.Sprintf("%v $%04X", name, target)
    }
    return name
}

/* The memory annotation nestest prints after the operand, computed from the
 * state before the instruction runs. Needs a bus that can be peeked.
 */
func annotate(bus Bus, registers Snapshot, instruction *Instruction, operands []byte) string {
    if _, ok := bus.(Peeker); !ok {
        return ""
    }

    value := func(address uint16) byte {
        out, _ := peek(bus, address)
        return out
    }

    zeroWord := func(zero byte) uint16 {
        return (uint16(value(uint16(zero + 1))) << 8) | uint16(value(uint16(zero)))
    }

    switch instruction.Mode {
        case ModeZeroPage:
            return fmt.Sprintf("= %02X", value(uint16(operandByte(operands))))
        case ModeZeroPageX, ModeZeroPageY:
            index := registers.X
            if instruction.Mode == ModeZeroPageY {
                index = registers.Y
            }
            address := uint16(operandByte(operands) + index)
            return fmt.Sprintf("@ %02X = %02X", address, value(address))
        case ModeAbsolute:
            if instruction.Operation == OpJMP || instruction.Operation == OpJSR {
                return ""
            }
            address := operandWord(operands)
            return fmt.Sprintf("= %02X", value(address))
        case ModeAbsoluteX, ModeAbsoluteY:
            index := registers.X
            if instruction.Mode == ModeAbsoluteY {
                index = registers.Y
            }
            address := operandWord(operands) + uint16(index)
            return fmt.Sprintf("@ %04X = %02X", address, value(address))
        case ModeIndirect:
            pointer := operandWord(operands)
            low := uint16(value(pointer))
            high := uint16(value((pointer & 0xff00) | ((pointer + 1) & 0xff)))
            return fmt.Sprintf("= %04X", (high << 8) | low)
        case ModeIndirectX:
            zero := operandByte(operands) + registers.X
            address := zeroWord(zero)
            return fmt.Sprintf("@ %02X = %04X = %02X", zero, address, value(address))
        case ModeIndirectY:
            base := zeroWord(operandByte(operands))
            address := base + uint16(registers.Y)
            return fmt.Sprintf("= %04X @ %04X = %02X", base, address, value(address))
    }

    return ""
}

/* disassemble count instructions starting at pc, one per line */
func DisassembleRange(bus Bus, pc uint16, count int) []string {
    var out []string
    for i := 0; i < count; i++ {
        text, length := Disassemble(bus, pc)
        out = append(out, text)
        pc += uint16(length)
    }
    return out
}

/* disassemble the instruction at pc without side effects, the bus must be a Peeker */
func Disassemble(bus Bus, pc uint16) (string, int) {
    opcode, ok := peek(bus, pc)
    if !ok {
        return fmt.Sprintf("%04X  ??", pc), 1
    }
    instruction := Decode(opcode)
    operands := make([]byte, instruction.Mode.Operands())
    for i := range operands {
        operands[i], _ = peek(bus, pc + 1 + uint16(i))
    }

    var raw []string
    raw = append(raw, fmt.Sprintf("%02X", opcode))
    for _, operand := range operands {
        raw = append(raw, fmt.Sprintf("%02X", operand))
    }

    return fmt.Sprintf("%04X  %-9s %v", pc, strings.Join(raw, " "), disassemble(&instruction, pc, operands)), instruction.Length()
}
