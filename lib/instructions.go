package lib

import (
    "fmt"
    "strings"
)

/* opcode references
 * http://wiki.nesdev.com/w/index.php/CPU_unofficial_opcodes -- nice table of opcodes
 * http://www.oxyron.de/html/opcodes02.html -- has illegal opcodes and their semantics
 * https://www.masswerk.at/6502/6502_instruction_set.html
 * https://github.com/SingleStepTests/65x02 -- per opcode test vectors
 */

type InstructionType byte

/* the opcodes the rest of the code refers to by name */
const (
    Instruction_BRK InstructionType = 0x00
    Instruction_PHP = 0x08
    Instruction_BPL = 0x10
    Instruction_JSR = 0x20
    Instruction_PLP = 0x28
    Instruction_RTI = 0x40
    Instruction_PHA = 0x48
    Instruction_JMP_absolute = 0x4c
    Instruction_RTS = 0x60
    Instruction_ADC_immediate = 0x69
    Instruction_JMP_indirect = 0x6c
    Instruction_SEI = 0x78
    Instruction_STA_zero = 0x85
    Instruction_STA_absolute = 0x8d
    Instruction_STA_absolute_x = 0x9d
    Instruction_STX_absolute = 0x8e
    Instruction_LDX_immediate = 0xa2
    Instruction_LDA_immediate = 0xa9
    Instruction_LDA_absolute = 0xad
    Instruction_LDA_indirect_y = 0xb1
    Instruction_LDA_absolute_x = 0xbd
    Instruction_TAX = 0xaa
    Instruction_DEX = 0xca
    Instruction_BNE = 0xd0
    Instruction_CLD = 0xd8
    Instruction_CPX_immediate = 0xe0
    Instruction_INX = 0xe8
    Instruction_SBC_immediate = 0xe9
    Instruction_NOP = 0xea
    Instruction_SED = 0xf8
    Instruction_KIL_1 = 0x02
)

type AddressingMode int

const (
    ModeImplied AddressingMode = iota
    ModeAccumulator
    ModeImmediate
    ModeZeroPage
    ModeZeroPageX
    ModeZeroPageY
    ModeAbsolute
    ModeAbsoluteX
    ModeAbsoluteY
    ModeIndirect
    ModeIndirectX
    ModeIndirectY
    ModeRelative
)

/* number of bytes following the opcode */
func (mode AddressingMode) Operands() int {
    switch mode {
        case ModeImplied, ModeAccumulator: return 0
        case ModeAbsolute, ModeAbsoluteX, ModeAbsoluteY, ModeIndirect: return 2
    }
    return 1
}

/* modes that pay an extra cycle for crossing a page on a read */
func (mode AddressingMode) indexed() bool {
    return mode == ModeAbsoluteX || mode == ModeAbsoluteY || mode == ModeIndirectY
}

func (mode AddressingMode) String() string {
    switch mode {
        case ModeImplied: return "implied"
        case ModeAccumulator: return "accumulator"
        case ModeImmediate: return "immediate"
        case ModeZeroPage: return "zero"
        case ModeZeroPageX: return "zero,x"
        case ModeZeroPageY: return "zero,y"
        case ModeAbsolute: return "absolute"
        case ModeAbsoluteX: return "absolute,x"
        case ModeAbsoluteY: return "absolute,y"
        case ModeIndirect: return "indirect"
        case ModeIndirectX: return "(indirect,x)"
        case ModeIndirectY: return "(indirect),y"
        case ModeRelative: return "relative"
    }
    return fmt.Sprintf("mode(%d)", int(mode))
}

type Operation int

const (
    OpADC Operation = iota
    OpAND
    OpASL
    OpBCC
    OpBCS
    OpBEQ
    OpBIT
    OpBMI
    OpBNE
    OpBPL
    OpBRK
    OpBVC
    OpBVS
    OpCLC
    OpCLD
    OpCLI
    OpCLV
    OpCMP
    OpCPX
    OpCPY
    OpDEC
    OpDEX
    OpDEY
    OpEOR
    OpINC
    OpINX
    OpINY
    OpJMP
    OpJSR
    OpLDA
    OpLDX
    OpLDY
    OpLSR
    OpNOP
    OpORA
    OpPHA
    OpPHP
    OpPLA
    OpPLP
    OpROL
    OpROR
    OpRTI
    OpRTS
    OpSBC
    OpSEC
    OpSED
    OpSEI
    OpSTA
    OpSTX
    OpSTY
    OpTAX
    OpTAY
    OpTSX
    OpTXA
    OpTXS
    OpTYA

    /* unofficial */
    OpALR
    OpANC
    OpANE
    OpARR
    OpDCP
    OpISC
    OpJAM
    OpLAS
    OpLAX
    OpLXA
    OpRLA
    OpRRA
    OpSAX
    OpSBX
    OpSHA
    OpSHX
    OpSHY
    OpSLO
    OpSRE
    OpTAS

    operationCount
)

type operationInfo struct {
    name string
    access AccessKind
    flags byte
    illegal bool
}

const flagsNZ = FlagNegative | FlagZero
const flagsNZC = FlagNegative | FlagZero | FlagCarry
const flagsNVZC = FlagNegative | FlagOverflow | FlagZero | FlagCarry

var operations = [operationCount]operationInfo{
    OpADC: {"adc", AccessRead, flagsNVZC, false},
    OpAND: {"and", AccessRead, flagsNZ, false},
    OpASL: {"asl", AccessReadModifyWrite, flagsNZC, false},
    OpBCC: {"bcc", AccessNone, 0, false},
    OpBCS: {"bcs", AccessNone, 0, false},
    OpBEQ: {"beq", AccessNone, 0, false},
    OpBIT: {"bit", AccessRead, FlagNegative | FlagOverflow | FlagZero, false},
    OpBMI: {"bmi", AccessNone, 0, false},
    OpBNE: {"bne", AccessNone, 0, false},
    OpBPL: {"bpl", AccessNone, 0, false},
    OpBRK: {"brk", AccessNone, FlagInterrupt, false},
    OpBVC: {"bvc", AccessNone, 0, false},
    OpBVS: {"bvs", AccessNone, 0, false},
    OpCLC: {"clc", AccessNone, FlagCarry, false},
    OpCLD: {"cld", AccessNone, FlagDecimal, false},
    OpCLI: {"cli", AccessNone, FlagInterrupt, false},
    OpCLV: {"clv", AccessNone, FlagOverflow, false},
    OpCMP: {"cmp", AccessRead, flagsNZC, false},
    OpCPX: {"cpx", AccessRead, flagsNZC, false},
    OpCPY: {"cpy", AccessRead, flagsNZC, false},
    OpDEC: {"dec", AccessReadModifyWrite, flagsNZ, false},
    OpDEX: {"dex", AccessNone, flagsNZ, false},
    OpDEY: {"dey", AccessNone, flagsNZ, false},
    OpEOR: {"eor", AccessRead, flagsNZ, false},
    OpINC: {"inc", AccessReadModifyWrite, flagsNZ, false},
    OpINX: {"inx", AccessNone, flagsNZ, false},
    OpINY: {"iny", AccessNone, flagsNZ, false},
    OpJMP: {"jmp", AccessNone, 0, false},
    OpJSR: {"jsr", AccessNone, 0, false},
    OpLDA: {"lda", AccessRead, flagsNZ, false},
    OpLDX: {"ldx", AccessRead, flagsNZ, false},
    OpLDY: {"ldy", AccessRead, flagsNZ, false},
    OpLSR: {"lsr", AccessReadModifyWrite, flagsNZC, false},
    OpNOP: {"nop", AccessRead, 0, false},
    OpORA: {"ora", AccessRead, flagsNZ, false},
    OpPHA: {"pha", AccessNone, 0, false},
    OpPHP: {"php", AccessNone, 0, false},
    OpPLA: {"pla", AccessNone, flagsNZ, false},
    OpPLP: {"plp", AccessNone, stackedFlags, false},
    OpROL: {"rol", AccessReadModifyWrite, flagsNZC, false},
    OpROR: {"ror", AccessReadModifyWrite, flagsNZC, false},
    OpRTI: {"rti", AccessNone, stackedFlags, false},
    OpRTS: {"rts", AccessNone, 0, false},
    OpSBC: {"sbc", AccessRead, flagsNVZC, false},
    OpSEC: {"sec", AccessNone, FlagCarry, false},
    OpSED: {"sed", AccessNone, FlagDecimal, false},
    OpSEI: {"sei", AccessNone, FlagInterrupt, false},
    OpSTA: {"sta", AccessWrite, 0, false},
    OpSTX: {"stx", AccessWrite, 0, false},
    OpSTY: {"sty", AccessWrite, 0, false},
    OpTAX: {"tax", AccessNone, flagsNZ, false},
    OpTAY: {"tay", AccessNone, flagsNZ, false},
    OpTSX: {"tsx", AccessNone, flagsNZ, false},
    OpTXA: {"txa", AccessNone, flagsNZ, false},
    OpTXS: {"txs", AccessNone, 0, false},
    OpTYA: {"tya", AccessNone, flagsNZ, false},

    OpALR: {"alr", AccessRead, flagsNZC, true},
    OpANC: {"anc", AccessRead, flagsNZC, true},
    OpANE: {"ane", AccessRead, flagsNZ, true},
    OpARR: {"arr", AccessRead, flagsNVZC, true},
    OpDCP: {"dcp", AccessReadModifyWrite, flagsNZC, true},
    OpISC: {"isc", AccessReadModifyWrite, flagsNVZC, true},
    OpJAM: {"jam", AccessNone, 0, true},
    OpLAS: {"las", AccessRead, flagsNZ, true},
    OpLAX: {"lax", AccessRead, flagsNZ, true},
    OpLXA: {"lxa", AccessRead, flagsNZ, true},
    OpRLA: {"rla", AccessReadModifyWrite, flagsNZC, true},
    OpRRA: {"rra", AccessReadModifyWrite, flagsNVZC, true},
    OpSAX: {"sax", AccessWrite, 0, true},
    OpSBX: {"sbx", AccessRead, flagsNZC, true},
    OpSHA: {"sha", AccessWrite, 0, true},
    OpSHX: {"shx", AccessWrite, 0, true},
    OpSHY: {"shy", AccessWrite, 0, true},
    OpSLO: {"slo", AccessReadModifyWrite, flagsNZC, true},
    OpSRE: {"sre", AccessReadModifyWrite, flagsNZC, true},
    OpTAS: {"tas", AccessWrite, 0, true},
}

func (op Operation) String() string {
    if op >= 0 && op < operationCount {
        return operations[op].name
    }
    return fmt.Sprintf("op(%d)", int(op))
}

/* true for operations whose result depends on the decimal flag */
func (op Operation) DecimalSensitive() bool {
    switch op {
        case OpADC, OpSBC, OpRRA, OpISC, OpARR:
            return true
    }
    return false
}

/* An immutable description of one opcode. The table of these is the single
 * place that knows operand lengths, cycle costs and which flags may change.
 */
type Instruction struct {
    Kind InstructionType
    Name string
    Operation Operation
    Mode AddressingMode
    Access AccessKind
    /* cycles without page crossing or branch penalties */
    Cycles int
    /* reads through an indexed mode take one more cycle when a page is crossed */
    PageCross bool
    Illegal bool
    /* the only status bits this instruction may change */
    Flags byte
}

func (instruction Instruction) Length() int {
    return 1 + instruction.Mode.Operands()
}

func (instruction Instruction) Mnemonic() string {
    return strings.ToUpper(instruction.Name)
}

func (instruction Instruction) String() string {
    return fmt.Sprintf("%02X %v %v", byte(instruction.Kind), instruction.Mnemonic(), instruction.Mode)
}

type InstructionTable [256]Instruction

type opcodeEntry struct {
    op Operation
    mode AddressingMode
    cycles int
}

/* NMOS 6502 opcode matrix */
var opcodeMatrix = [256]opcodeEntry{
    0x00: {OpBRK, ModeImplied, 7}, 0x01: {OpORA, ModeIndirectX, 6}, 0x02: {OpJAM, ModeImplied, 2}, 0x03: {OpSLO, ModeIndirectX, 8},
    0x04: {OpNOP, ModeZeroPage, 3}, 0x05: {OpORA, ModeZeroPage, 3}, 0x06: {OpASL, ModeZeroPage, 5}, 0x07: {OpSLO, ModeZeroPage, 5},
    0x08: {OpPHP, ModeImplied, 3}, 0x09: {OpORA, ModeImmediate, 2}, 0x0a: {OpASL, ModeAccumulator, 2}, 0x0b: {OpANC, ModeImmediate, 2},
    0x0c: {OpNOP, ModeAbsolute, 4}, 0x0d: {OpORA, ModeAbsolute, 4}, 0x0e: {OpASL, ModeAbsolute, 6}, 0x0f: {OpSLO, ModeAbsolute, 6},

    0x10: {OpBPL, ModeRelative, 2}, 0x11: {OpORA, ModeIndirectY, 5}, 0x12: {OpJAM, ModeImplied, 2}, 0x13: {OpSLO, ModeIndirectY, 8},
    0x14: {OpNOP, ModeZeroPageX, 4}, 0x15: {OpORA, ModeZeroPageX, 4}, 0x16: {OpASL, ModeZeroPageX, 6}, 0x17: {OpSLO, ModeZeroPageX, 6},
    0x18: {OpCLC, ModeImplied, 2}, 0x19: {OpORA, ModeAbsoluteY, 4}, 0x1a: {OpNOP, ModeImplied, 2}, 0x1b: {OpSLO, ModeAbsoluteY, 7},
    0x1c: {OpNOP, ModeAbsoluteX, 4}, 0x1d: {OpORA, ModeAbsoluteX, 4}, 0x1e: {OpASL, ModeAbsoluteX, 7}, 0x1f: {OpSLO, ModeAbsoluteX, 7},

    0x20: {OpJSR, ModeAbsolute, 6}, 0x21: {OpAND, ModeIndirectX, 6}, 0x22: {OpJAM, ModeImplied, 2}, 0x23: {OpRLA, ModeIndirectX, 8},
    0x24: {OpBIT, ModeZeroPage, 3}, 0x25: {OpAND, ModeZeroPage, 3}, 0x26: {OpROL, ModeZeroPage, 5}, 0x27: {OpRLA, ModeZeroPage, 5},
    0x28: {OpPLP, ModeImplied, 4}, 0x29: {OpAND, ModeImmediate, 2}, 0x2a: {OpROL, ModeAccumulator, 2}, 0x2b: {OpANC, ModeImmediate, 2},
    0x2c: {OpBIT, ModeAbsolute, 4}, 0x2d: {OpAND, ModeAbsolute, 4}, 0x2e: {OpROL, ModeAbsolute, 6}, 0x2f: {OpRLA, ModeAbsolute, 6},

    0x30: {OpBMI, ModeRelative, 2}, 0x31: {OpAND, ModeIndirectY, 5}, 0x32: {OpJAM, ModeImplied, 2}, 0x33: {OpRLA, ModeIndirectY, 8},
    0x34: {OpNOP, ModeZeroPageX, 4}, 0x35: {OpAND, ModeZeroPageX, 4}, 0x36: {OpROL, ModeZeroPageX, 6}, 0x37: {OpRLA, ModeZeroPageX, 6},
    0x38: {OpSEC, ModeImplied, 2}, 0x39: {OpAND, ModeAbsoluteY, 4}, 0x3a: {OpNOP, ModeImplied, 2}, 0x3b: {OpRLA, ModeAbsoluteY, 7},
    0x3c: {OpNOP, ModeAbsoluteX, 4}, 0x3d: {OpAND, ModeAbsoluteX, 4}, 0x3e: {OpROL, ModeAbsoluteX, 7}, 0x3f: {OpRLA, ModeAbsoluteX, 7},

    0x40: {OpRTI, ModeImplied, 6}, 0x41: {OpEOR, ModeIndirectX, 6}, 0x42: {OpJAM, ModeImplied, 2}, 0x43: {OpSRE, ModeIndirectX, 8},
    0x44: {OpNOP, ModeZeroPage, 3}, 0x45: {OpEOR, ModeZeroPage, 3}, 0x46: {OpLSR, ModeZeroPage, 5}, 0x47: {OpSRE, ModeZeroPage, 5},
    0x48: {OpPHA, ModeImplied, 3}, 0x49: {OpEOR, ModeImmediate, 2}, 0x4a: {OpLSR, ModeAccumulator, 2}, 0x4b: {OpALR, ModeImmediate, 2},
    0x4c: {OpJMP, ModeAbsolute, 3}, 0x4d: {OpEOR, ModeAbsolute, 4}, 0x4e: {OpLSR, ModeAbsolute, 6}, 0x4f: {OpSRE, ModeAbsolute, 6},

    0x50: {OpBVC, ModeRelative, 2}, 0x51: {OpEOR, ModeIndirectY, 5}, 0x52: {OpJAM, ModeImplied, 2}, 0x53: {OpSRE, ModeIndirectY, 8},
    0x54: {OpNOP, ModeZeroPageX, 4}, 0x55: {OpEOR, ModeZeroPageX, 4}, 0x56: {OpLSR, ModeZeroPageX, 6}, 0x57: {OpSRE, ModeZeroPageX, 6},
    0x58: {OpCLI, ModeImplied, 2}, 0x59: {OpEOR, ModeAbsoluteY, 4}, 0x5a: {OpNOP, ModeImplied, 2}, 0x5b: {OpSRE, ModeAbsoluteY, 7},
    0x5c: {OpNOP, ModeAbsoluteX, 4}, 0x5d: {OpEOR, ModeAbsoluteX, 4}, 0x5e: {OpLSR, ModeAbsoluteX, 7}, 0x5f: {OpSRE, ModeAbsoluteX, 7},

    0x60: {OpRTS, ModeImplied, 6}, 0x61: {OpADC, ModeIndirectX, 6}, 0x62: {OpJAM, ModeImplied, 2}, 0x63: {OpRRA, ModeIndirectX, 8},
    0x64: {OpNOP, ModeZeroPage, 3}, 0x65: {OpADC, ModeZeroPage, 3}, 0x66: {OpROR, ModeZeroPage, 5}, 0x67: {OpRRA, ModeZeroPage, 5},
    0x68: {OpPLA, ModeImplied, 4}, 0x69: {OpADC, ModeImmediate, 2}, 0x6a: {OpROR, ModeAccumulator, 2}, 0x6b: {OpARR, ModeImmediate, 2},
    0x6c: {OpJMP, ModeIndirect, 5}, 0x6d: {OpADC, ModeAbsolute, 4}, 0x6e: {OpROR, ModeAbsolute, 6}, 0x6f: {OpRRA, ModeAbsolute, 6},

    0x70: {OpBVS, ModeRelative, 2}, 0x71: {OpADC, ModeIndirectY, 5}, 0x72: {OpJAM, ModeImplied, 2}, 0x73: {OpRRA, ModeIndirectY, 8},
    0x74: {OpNOP, ModeZeroPageX, 4}, 0x75: {OpADC, ModeZeroPageX, 4}, 0x76: {OpROR, ModeZeroPageX, 6}, 0x77: {OpRRA, ModeZeroPageX, 6},
    0x78: {OpSEI, ModeImplied, 2}, 0x79: {OpADC, ModeAbsoluteY, 4}, 0x7a: {OpNOP, ModeImplied, 2}, 0x7b: {OpRRA, ModeAbsoluteY, 7},
    0x7c: {OpNOP, ModeAbsoluteX, 4}, 0x7d: {OpADC, ModeAbsoluteX, 4}, 0x7e: {OpROR, ModeAbsoluteX, 7}, 0x7f: {OpRRA, ModeAbsoluteX, 7},

    0x80: {OpNOP, ModeImmediate, 2}, 0x81: {OpSTA, ModeIndirectX, 6}, 0x82: {OpNOP, ModeImmediate, 2}, 0x83: {OpSAX, ModeIndirectX, 6},
    0x84: {OpSTY, ModeZeroPage, 3}, 0x85: {OpSTA, ModeZeroPage, 3}, 0x86: {OpSTX, ModeZeroPage, 3}, 0x87: {OpSAX, ModeZeroPage, 3},
    0x88: {OpDEY, ModeImplied, 2}, 0x89: {OpNOP, ModeImmediate, 2}, 0x8a: {OpTXA, ModeImplied, 2}, 0x8b: {OpANE, ModeImmediate, 2},
    0x8c: {OpSTY, ModeAbsolute, 4}, 0x8d: {OpSTA, ModeAbsolute, 4}, 0x8e: {OpSTX, ModeAbsolute, 4}, 0x8f: {OpSAX, ModeAbsolute, 4},

    0x90: {OpBCC, ModeRelative, 2}, 0x91: {OpSTA, ModeIndirectY, 6}, 0x92: {OpJAM, ModeImplied, 2}, 0x93: {OpSHA, ModeIndirectY, 6},
    0x94: {OpSTY, ModeZeroPageX, 4}, 0x95: {OpSTA, ModeZeroPageX, 4}, 0x96: {OpSTX, ModeZeroPageY, 4}, 0x97: {OpSAX, ModeZeroPageY, 4},
    0x98: {OpTYA, ModeImplied, 2}, 0x99: {OpSTA, ModeAbsoluteY, 5}, 0x9a: {OpTXS, ModeImplied, 2}, 0x9b: {OpTAS, ModeAbsoluteY, 5},
    0x9c: {OpSHY, ModeAbsoluteX, 5}, 0x9d: {OpSTA, ModeAbsoluteX, 5}, 0x9e: {OpSHX, ModeAbsoluteY, 5}, 0x9f: {OpSHA, ModeAbsoluteY, 5},

    0xa0: {OpLDY, ModeImmediate, 2}, 0xa1: {OpLDA, ModeIndirectX, 6}, 0xa2: {OpLDX, ModeImmediate, 2}, 0xa3: {OpLAX, ModeIndirectX, 6},
    0xa4: {OpLDY, ModeZeroPage, 3}, 0xa5: {OpLDA, ModeZeroPage, 3}, 0xa6: {OpLDX, ModeZeroPage, 3}, 0xa7: {OpLAX, ModeZeroPage, 3},
    0xa8: {OpTAY, ModeImplied, 2}, 0xa9: {OpLDA, ModeImmediate, 2}, 0xaa: {OpTAX, ModeImplied, 2}, 0xab: {OpLXA, ModeImmediate, 2},
    0xac: {OpLDY, ModeAbsolute, 4}, 0xad: {OpLDA, ModeAbsolute, 4}, 0xae: {OpLDX, ModeAbsolute, 4}, 0xaf: {OpLAX, ModeAbsolute, 4},

    0xb0: {OpBCS, ModeRelative, 2}, 0xb1: {OpLDA, ModeIndirectY, 5}, 0xb2: {OpJAM, ModeImplied, 2}, 0xb3: {OpLAX, ModeIndirectY, 5},
    0xb4: {OpLDY, ModeZeroPageX, 4}, 0xb5: {OpLDA, ModeZeroPageX, 4}, 0xb6: {OpLDX, ModeZeroPageY, 4}, 0xb7: {OpLAX, ModeZeroPageY, 4},
    0xb8: {OpCLV, ModeImplied, 2}, 0xb9: {OpLDA, ModeAbsoluteY, 4}, 0xba: {OpTSX, ModeImplied, 2}, 0xbb: {OpLAS, ModeAbsoluteY, 4},
    0xbc: {OpLDY, ModeAbsoluteX, 4}, 0xbd: {OpLDA, ModeAbsoluteX, 4}, 0xbe: {OpLDX, ModeAbsoluteY, 4}, 0xbf: {OpLAX, ModeAbsoluteY, 4},

    0xc0: {OpCPY, ModeImmediate, 2}, 0xc1: {OpCMP, ModeIndirectX, 6}, 0xc2: {OpNOP, ModeImmediate, 2}, 0xc3: {OpDCP, ModeIndirectX, 8},
    0xc4: {OpCPY, ModeZeroPage, 3}, 0xc5: {OpCMP, ModeZeroPage, 3}, 0xc6: {OpDEC, ModeZeroPage, 5}, 0xc7: {OpDCP, ModeZeroPage, 5},
    0xc8: {OpINY, ModeImplied, 2}, 0xc9: {OpCMP, ModeImmediate, 2}, 0xca: {OpDEX, ModeImplied, 2}, 0xcb: {OpSBX, ModeImmediate, 2},
    0xcc: {OpCPY, ModeAbsolute, 4}, 0xcd: {OpCMP, ModeAbsolute, 4}, 0xce: {OpDEC, ModeAbsolute, 6}, 0xcf: {OpDCP, ModeAbsolute, 6},

    0xd0: {OpBNE, ModeRelative, 2}, 0xd1: {OpCMP, ModeIndirectY, 5}, 0xd2: {OpJAM, ModeImplied, 2}, 0xd3: {OpDCP, ModeIndirectY, 8},
    0xd4: {OpNOP, ModeZeroPageX, 4}, 0xd5: {OpCMP, ModeZeroPageX, 4}, 0xd6: {OpDEC, ModeZeroPageX, 6}, 0xd7: {OpDCP, ModeZeroPageX, 6},
    0xd8: {OpCLD, ModeImplied, 2}, 0xd9: {OpCMP, ModeAbsoluteY, 4}, 0xda: {OpNOP, ModeImplied, 2}, 0xdb: {OpDCP, ModeAbsoluteY, 7},
    0xdc: {OpNOP, ModeAbsoluteX, 4}, 0xdd: {OpCMP, ModeAbsoluteX, 4}, 0xde: {OpDEC, ModeAbsoluteX, 7}, 0xdf: {OpDCP, ModeAbsoluteX, 7},

    0xe0: {OpCPX, ModeImmediate, 2}, 0xe1: {OpSBC, ModeIndirectX, 6}, 0xe2: {OpNOP, ModeImmediate, 2}, 0xe3: {OpISC, ModeIndirectX, 8},
    0xe4: {OpCPX, ModeZeroPage, 3}, 0xe5: {OpSBC, ModeZeroPage, 3}, 0xe6: {OpINC, ModeZeroPage, 5}, 0xe7: {OpISC, ModeZeroPage, 5},
    0xe8: {OpINX, ModeImplied, 2}, 0xe9: {OpSBC, ModeImmediate, 2}, 0xea: {OpNOP, ModeImplied, 2}, 0xeb: {OpSBC, ModeImmediate, 2},
    0xec: {OpCPX, ModeAbsolute, 4}, 0xed: {OpSBC, ModeAbsolute, 4}, 0xee: {OpINC, ModeAbsolute, 6}, 0xef: {OpISC, ModeAbsolute, 6},

    0xf0: {OpBEQ, ModeRelative, 2}, 0xf1: {OpSBC, ModeIndirectY, 5}, 0xf2: {OpJAM, ModeImplied, 2}, 0xf3: {OpISC, ModeIndirectY, 8},
    0xf4: {OpNOP, ModeZeroPageX, 4}, 0xf5: {OpSBC, ModeZeroPageX, 4}, 0xf6: {OpINC, ModeZeroPageX, 6}, 0xf7: {OpISC, ModeZeroPageX, 6},
    0xf8: {OpSED, ModeImplied, 2}, 0xf9: {OpSBC, ModeAbsoluteY, 4}, 0xfa: {OpNOP, ModeImplied, 2}, 0xfb: {OpISC, ModeAbsoluteY, 7},
    0xfc: {OpNOP, ModeAbsoluteX, 4}, 0xfd: {OpSBC, ModeAbsoluteX, 4}, 0xfe: {OpINC, ModeAbsoluteX, 7}, 0xff: {OpISC, ModeAbsoluteX, 7},
}

func MakeInstructionTable() InstructionTable {
    var table InstructionTable

    for opcode := 0; opcode < 256; opcode++ {
        entry := opcodeMatrix[opcode]
        info := operations[entry.op]

        access := info.access
        if entry.mode == ModeImplied || entry.mode == ModeAccumulator || entry.mode == ModeRelative {
            access = AccessNone
        }

        table[opcode] = Instruction{
            Kind: InstructionType(opcode),
            Name: info.name,
            Operation: entry.op,
            Mode: entry.mode,
            Access: access,
            Cycles: entry.cycles,
            PageCross: access == AccessRead && entry.mode.indexed(),
            Illegal: info.illegal || (entry.op == OpNOP && opcode != Instruction_NOP) || opcode == 0xeb,
            Flags: info.flags,
        }
    }

    /* make sure the matrix above wasn't edited into something inconsistent */
    for opcode, instruction := range table {
        if instruction.Name == "" || instruction.Cycles < 2 || int(instruction.Kind) != opcode {
            panic(fmt.Sprintf("internal error: bad instruction table entry 0x%02x: %+v", opcode, instruction))
        }
        if instruction.Access == AccessNone && instruction.Mode != ModeImplied && instruction.Mode != ModeAccumulator &&
           instruction.Mode != ModeRelative && instruction.Operation != OpJMP && instruction.Operation != OpJSR {
            panic(fmt.Sprintf("internal error: instruction 0x%02x has an operand but no access", opcode))
        }
    }

    return table
}

var instructionTable = MakeInstructionTable()

/* decoding is total, every byte has an entry */
func Decode(opcode byte) Instruction {
    return instructionTable[opcode]
}

/* a copy, the decoder's table is never handed out */
func GetInstructionTable() InstructionTable {
    return instructionTable
}
