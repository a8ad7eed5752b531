package lib

import (
    "fmt"
)

/* the value the unstable ANE and LXA opcodes OR into A before the AND */
const unstableMagic byte = 0xee

func (cpu *CPUState) fetchWord() uint16 {
    low := uint16(cpu.fetch())
    high := uint16(cpu.fetch())
    return (high << 8) | low
}

/* read a pointer out of the zero page, the high byte wraps within page 0 */
func (cpu *CPUState) readZeroPageWord(zero byte) uint16 {
    low := uint16(cpu.read(uint16(zero)))
    high := uint16(cpu.read(uint16(zero + 1)))
    return (high << 8) | low
}

func (cpu *CPUState) zeroPageIndexed(index byte) uint16 {
    zero := cpu.fetch()
    /* the cpu reads the unindexed address while it adds */
    cpu.read(uint16(zero))
    return uint16(zero + index)
}

/* Add an index to a 16-bit base. The cpu first reads from the address with
 * only the low byte adjusted. Reads that stay in the page use that value and
 * skip the fixup cycle, writes and read-modify-writes always take it.
 */
func (cpu *CPUState) indexed(base uint16, index byte, access AccessKind) uint16 {
    address := base + uint16(index)
    crossed := (address & 0xff00) != (base & 0xff00)
    if crossed || access != AccessRead {
        cpu.read((base & 0xff00) | (address & 0xff))
    }
    return address
}

/* compute the effective address of a memory operand */
func (cpu *CPUState) address(instruction *Instruction) uint16 {
    switch instruction.Mode {
        case ModeZeroPage:
            return uint16(cpu.fetch())
        case ModeZeroPageX:
            return cpu.zeroPageIndexed(cpu.X)
        case ModeZeroPageY:
            return cpu.zeroPageIndexed(cpu.Y)
        case ModeAbsolute:
            return cpu.fetchWord()
        case ModeAbsoluteX:
            return cpu.indexed(cpu.fetchWord(), cpu.X, instruction.Access)
        case ModeAbsoluteY:
            return cpu.indexed(cpu.fetchWord(), cpu.Y, instruction.Access)
        case ModeIndirectX:
            zero := cpu.fetch()
            cpu.read(uint16(zero))
            return cpu.readZeroPageWord(zero + cpu.X)
        case ModeIndirectY:
            base := cpu.readZeroPageWord(cpu.fetch())
            return cpu.indexed(base, cpu.Y, instruction.Access)
    }

    panic(fmt.Sprintf("internal error: instruction %v has no memory operand", instruction))
}

func (cpu *CPUState) readOperand(instruction *Instruction) byte {
    if instruction.Mode == ModeImmediate {
        return cpu.fetch()
    }
    return cpu.read(cpu.address(instruction))
}

func (cpu *CPUState) writeOperand(instruction *Instruction, value byte){
    cpu.write(cpu.address(instruction), value)
}

/* read-modify-write. the NMOS cpu writes the unmodified value back first. */
func (cpu *CPUState) modifyOperand(instruction *Instruction, modify func(byte) byte) {
    if instruction.Mode == ModeAccumulator {
        cpu.dummyFetch()
        cpu.A = modify(cpu.A)
        return
    }

    address := cpu.address(instruction)
    value := cpu.read(address)
    cpu.write(address, value)
    cpu.write(address, modify(value))
}

/* SHA/SHX/SHY/TAS store value & (high byte of the base + 1). When the index
 * crosses a page the stored value also replaces the high byte of the address.
 */
func (cpu *CPUState) storeUnstable(instruction *Instruction, value byte){
    var base uint16
    var index byte

    switch instruction.Mode {
        case ModeAbsoluteX:
            base = cpu.fetchWord()
            index = cpu.X
        case ModeAbsoluteY:
            base = cpu.fetchWord()
            index = cpu.Y
        case ModeIndirectY:
            base = cpu.readZeroPageWord(cpu.fetch())
            index = cpu.Y
        default:
            panic(fmt.Sprintf("internal error: unstable store with mode %v", instruction.Mode))
    }

    address := base + uint16(index)
    cpu.read((base & 0xff00) | (address & 0xff))

    result := value & (byte(base >> 8) + 1)
    if (address & 0xff00) != (base & 0xff00) {
        address = (uint16(result) << 8) | (address & 0xff)
    }
    cpu.write(address, result)
}

func (cpu *CPUState) branch(condition bool){
    offset := cpu.fetch()
    if !condition {
        return
    }

    cpu.dummyFetch()
    target := cpu.PC + uint16(int16(int8(offset)))
    if (target & 0xff00) != (cpu.PC & 0xff00) {
        cpu.read((cpu.PC & 0xff00) | (target & 0xff))
    }
    cpu.PC = target
}

/* PLP and RTI: B and the unused bit are not real latches, keep the current ones */
func (cpu *CPUState) pullStatus(value byte){
    cpu.SetStatus((value & stackedFlags) | (cpu.status & (FlagBreak | FlagUnused)))
}

func (cpu *CPUState) implied(){
    cpu.dummyFetch()
}

func (cpu *CPUState) execute(instruction *Instruction){
    switch instruction.Operation {
        case OpADC:
            cpu.doAdc(cpu.readOperand(instruction))
        case OpAND:
            cpu.loadA(cpu.A & cpu.readOperand(instruction))
        case OpASL:
            cpu.modifyOperand(instruction, cpu.doAsl)
        case OpBCC:
            cpu.branch(!cpu.GetCarryFlag())
        case OpBCS:
            cpu.branch(cpu.GetCarryFlag())
        case OpBEQ:
            cpu.branch(cpu.GetZeroFlag())
        case OpBIT:
            cpu.doBit(cpu.readOperand(instruction))
        case OpBMI:
            cpu.branch(cpu.GetNegativeFlag())
        case OpBNE:
            cpu.branch(!cpu.GetZeroFlag())
        case OpBPL:
            cpu.branch(!cpu.GetNegativeFlag())
        case OpBRK:
            /* the byte after BRK is skipped */
            cpu.fetch()
            cpu.push(byte(cpu.PC >> 8))
            cpu.push(byte(cpu.PC & 0xff))
            cpu.push(cpu.status | FlagBreak | FlagUnused)
            cpu.SetInterruptDisableFlag(true)
            cpu.PC = cpu.readWord(IRQVector)
        case OpBVC:
            cpu.branch(!cpu.GetOverflowFlag())
        case OpBVS:
            cpu.branch(cpu.GetOverflowFlag())
        case OpCLC:
            cpu.implied()
            cpu.SetCarryFlag(false)
        case OpCLD:
            cpu.implied()
            cpu.SetDecimalFlag(false)
        case OpCLI:
            cpu.implied()
            cpu.SetInterruptDisableFlag(false)
        case OpCLV:
            cpu.implied()
            cpu.SetOverflowFlag(false)
        case OpCMP:
            cpu.doCompare(cpu.A, cpu.readOperand(instruction))
        case OpCPX:
            cpu.doCompare(cpu.X, cpu.readOperand(instruction))
        case OpCPY:
            cpu.doCompare(cpu.Y, cpu.readOperand(instruction))
        case OpDEC:
            cpu.modifyOperand(instruction, cpu.doDec)
        case OpDEX:
            cpu.implied()
            cpu.loadX(cpu.X - 1)
        case OpDEY:
            cpu.implied()
            cpu.loadY(cpu.Y - 1)
        case OpEOR:
            cpu.loadA(cpu.A ^ cpu.readOperand(instruction))
        case OpINC:
            cpu.modifyOperand(instruction, cpu.doInc)
        case OpINX:
            cpu.implied()
            cpu.loadX(cpu.X + 1)
        case OpINY:
            cpu.implied()
            cpu.loadY(cpu.Y + 1)
        case OpJMP:
            if instruction.Mode == ModeIndirect {
                pointer := cpu.fetchWord()
                low := uint16(cpu.read(pointer))
                /* the high byte is read without carrying into the page, so
                 * JMP ($10ff) takes its high byte from $1000
                 */
                high := uint16(cpu.read((pointer & 0xff00) | ((pointer + 1) & 0xff)))
                cpu.PC = (high << 8) | low
            } else {
                cpu.PC = cpu.fetchWord()
            }
        case OpJSR:
            low := uint16(cpu.fetch())
            cpu.dummyStackRead()
            /* PC points at the high byte of the target, RTS adds one */
            cpu.push(byte(cpu.PC >> 8))
            cpu.push(byte(cpu.PC & 0xff))
            high := uint16(cpu.fetch())
            cpu.PC = (high << 8) | low
        case OpLDA:
            cpu.loadA(cpu.readOperand(instruction))
        case OpLDX:
            cpu.loadX(cpu.readOperand(instruction))
        case OpLDY:
            cpu.loadY(cpu.readOperand(instruction))
        case OpLSR:
            cpu.modifyOperand(instruction, cpu.doLsr)
        case OpNOP:
            if instruction.Mode == ModeImplied {
                cpu.implied()
            } else {
                cpu.readOperand(instruction)
            }
        case OpORA:
            cpu.loadA(cpu.A | cpu.readOperand(instruction))
        case OpPHA:
            cpu.implied()
            cpu.push(cpu.A)
        case OpPHP:
            cpu.implied()
            cpu.push(cpu.status | FlagBreak | FlagUnused)
        case OpPLA:
            cpu.implied()
            cpu.dummyStackRead()
            cpu.loadA(cpu.pull())
        case OpPLP:
            cpu.implied()
            cpu.dummyStackRead()
            cpu.pullStatus(cpu.pull())
        case OpROL:
            cpu.modifyOperand(instruction, cpu.doRol)
        case OpROR:
            cpu.modifyOperand(instruction, cpu.doRor)
        case OpRTI:
            cpu.implied()
            cpu.dummyStackRead()
            cpu.pullStatus(cpu.pull())
            low := uint16(cpu.pull())
            high := uint16(cpu.pull())
            cpu.PC = (high << 8) | low
        case OpRTS:
            cpu.implied()
            cpu.dummyStackRead()
            low := uint16(cpu.pull())
            high := uint16(cpu.pull())
            cpu.PC = (high << 8) | low
            cpu.dummyFetch()
            cpu.PC += 1
        case OpSBC:
            cpu.doSbc(cpu.readOperand(instruction))
        case OpSEC:
            cpu.implied()
            cpu.SetCarryFlag(true)
        case OpSED:
            cpu.implied()
            cpu.SetDecimalFlag(true)
        case OpSEI:
            cpu.implied()
            cpu.SetInterruptDisableFlag(true)
        case OpSTA:
            cpu.writeOperand(instruction, cpu.A)
        case OpSTX:
            cpu.writeOperand(instruction, cpu.X)
        case OpSTY:
            cpu.writeOperand(instruction, cpu.Y)
        case OpTAX:
            cpu.implied()
            cpu.loadX(cpu.A)
        case OpTAY:
            cpu.implied()
            cpu.loadY(cpu.A)
        case OpTSX:
            cpu.implied()
            cpu.loadX(cpu.SP)
        case OpTXA:
            cpu.implied()
            cpu.loadA(cpu.X)
        case OpTXS:
            cpu.implied()
            cpu.SP = cpu.X
        case OpTYA:
            cpu.implied()
            cpu.loadA(cpu.Y)

        case OpALR:
            cpu.A = cpu.doLsr(cpu.A & cpu.readOperand(instruction))
        case OpANC:
            cpu.loadA(cpu.A & cpu.readOperand(instruction))
            cpu.SetCarryFlag(cpu.GetNegativeFlag())
        case OpANE:
            cpu.loadA((cpu.A | unstableMagic) & cpu.X & cpu.readOperand(instruction))
        case OpARR:
            cpu.doArr(cpu.readOperand(instruction))
        case OpDCP:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value -= 1
                cpu.doCompare(cpu.A, value)
                return value
            })
        case OpISC:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value += 1
                cpu.doSbc(value)
                return value
            })
        case OpJAM:
            cpu.dummyFetch()
            cpu.halted = true
        case OpLAS:
            value := cpu.readOperand(instruction) & cpu.SP
            cpu.SP = value
            cpu.loadX(value)
            cpu.A = value
        case OpLAX:
            value := cpu.readOperand(instruction)
            cpu.A = value
            cpu.loadX(value)
        case OpLXA:
            value := (cpu.A | unstableMagic) & cpu.readOperand(instruction)
            cpu.A = value
            cpu.loadX(value)
        case OpRLA:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value = cpu.doRol(value)
                cpu.loadA(cpu.A & value)
                return value
            })
        case OpRRA:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value = cpu.doRor(value)
                cpu.doAdc(value)
                return value
            })
        case OpSAX:
            cpu.writeOperand(instruction, cpu.A & cpu.X)
        case OpSBX:
            value := cpu.readOperand(instruction)
            and := cpu.A & cpu.X
            cpu.SetCarryFlag(and >= value)
            cpu.loadX(and - value)
        case OpSHA:
            cpu.storeUnstable(instruction, cpu.A & cpu.X)
        case OpSHX:
            cpu.storeUnstable(instruction, cpu.X)
        case OpSHY:
            cpu.storeUnstable(instruction, cpu.Y)
        case OpSLO:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value = cpu.doAsl(value)
                cpu.loadA(cpu.A | value)
                return value
            })
        case OpSRE:
            cpu.modifyOperand(instruction, func(value byte) byte {
                value = cpu.doLsr(value)
                cpu.loadA(cpu.A ^ value)
                return value
            })
        case OpTAS:
            cpu.SP = cpu.A & cpu.X
            cpu.storeUnstable(instruction, cpu.SP)

        default:
            panic(fmt.Sprintf("internal error: unable to execute instruction 0x%02x %v at PC 0x%x", byte(instruction.Kind), instruction.Mnemonic(), cpu.PC))
    }
}
