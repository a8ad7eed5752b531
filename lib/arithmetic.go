package lib

/* decimal mode is only honored when the variant has a working BCD unit.
 * the 2A03 in the NES has the flag but no decimal adder.
 */
func (cpu *CPUState) decimalMode() bool {
    return cpu.Variant.Decimal && cpu.GetDecimalFlag()
}

func (cpu *CPUState) carryBit() uint16 {
    if cpu.GetCarryFlag() {
        return 1
    }
    return 0
}

func (cpu *CPUState) doAdc(value byte){
    if cpu.decimalMode() {
        cpu.doAdcDecimal(value)
        return
    }

    full := uint16(cpu.A) + uint16(value) + cpu.carryBit()
    result := byte(full)
    /* overflow when both inputs have the same sign and the result has a different one */
    cpu.SetOverflowFlag((^(cpu.A ^ value) & (cpu.A ^ result) & 0x80) != 0)
    cpu.SetCarryFlag(full > 0xff)
    cpu.loadA(result)
}

/* NMOS decimal add. Z is taken from the binary sum, N and V from the
 * intermediate value after the low nibble is adjusted, C after the high
 * nibble is adjusted. Non-BCD inputs produce the same garbage the chip does.
 */
func (cpu *CPUState) doAdcDecimal(value byte){
    a := uint16(cpu.A)
    v := uint16(value)
    carry := cpu.carryBit()

    tmp := (a & 0xf) + (v & 0xf) + carry
    if tmp > 0x9 {
        tmp += 0x6
    }
    if tmp <= 0x0f {
        tmp = (tmp & 0xf) + (a & 0xf0) + (v & 0xf0)
    } else {
        tmp = (tmp & 0xf) + (a & 0xf0) + (v & 0xf0) + 0x10
    }

    cpu.SetZeroFlag(byte(a + v + carry) == 0)
    cpu.SetNegativeFlag(tmp & 0x80 != 0)
    cpu.SetOverflowFlag(((a ^ tmp) & 0x80) != 0 && ((a ^ v) & 0x80) == 0)

    if (tmp & 0x1f0) > 0x90 {
        tmp += 0x60
    }
    cpu.SetCarryFlag((tmp & 0xff0) > 0xf0)
    cpu.A = byte(tmp)
}

func (cpu *CPUState) doSbc(value byte){
    if cpu.decimalMode() {
        cpu.doSbcDecimal(value)
        return
    }
    /* a - b - borrow == a + ^b + carry */
    cpu.doAdc(^value)
}

/* NMOS decimal subtract. All flags come from the binary subtraction,
 * only the accumulator gets the decimal adjustment.
 */
func (cpu *CPUState) doSbcDecimal(value byte){
    a := uint16(cpu.A)
    v := uint16(value)
    borrow := 1 - cpu.carryBit()

    binary := a - v - borrow
    result := byte(binary)
    cpu.SetCarryFlag(binary < 0x100)
    cpu.SetOverflowFlag(((a ^ binary) & 0x80) != 0 && ((a ^ v) & 0x80) != 0)
    cpu.setNZ(result)

    low := (a & 0xf) - (v & 0xf) - borrow
    var adjusted uint16
    if low & 0x10 != 0 {
        adjusted = ((low - 6) & 0xf) | ((a & 0xf0) - (v & 0xf0) - 0x10)
    } else {
        adjusted = (low & 0xf) | ((a & 0xf0) - (v & 0xf0))
    }
    if adjusted & 0x100 != 0 {
        adjusted -= 0x60
    }
    cpu.A = byte(adjusted)
}

func (cpu *CPUState) doCompare(register byte, value byte){
    result := register - value
    cpu.SetCarryFlag(register >= value)
    cpu.setNZ(result)
}

func (cpu *CPUState) doBit(value byte){
    cpu.SetZeroFlag((cpu.A & value) == 0)
    cpu.SetNegativeFlag((value & (1<<7)) == (1<<7))
    cpu.SetOverflowFlag((value & (1<<6)) == (1<<6))
}

func (cpu *CPUState) doInc(value byte) byte {
    value = value + 1
    cpu.setNZ(value)
    return value
}

func (cpu *CPUState) doDec(value byte) byte {
    value = value - 1
    cpu.setNZ(value)
    return value
}

func (cpu *CPUState) doAsl(value byte) byte {
    cpu.SetCarryFlag(value & 0x80 == 0x80)
    out := value << 1
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doLsr(value byte) byte {
    cpu.SetCarryFlag(value & 1 == 1)
    out := value >> 1
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doRol(value byte) byte {
    carryBit := byte(cpu.carryBit())
    cpu.SetCarryFlag(value & 0x80 == 0x80)
    out := (value << 1) | carryBit
    cpu.setNZ(out)
    return out
}

func (cpu *CPUState) doRor(value byte) byte {
    carryBit := byte(cpu.carryBit()) << 7
    cpu.SetCarryFlag(value & 1 == 1)
    out := (value >> 1) | carryBit
    cpu.setNZ(out)
    return out
}

/* AND #imm then ROR A, with carry and overflow taken from bits 6 and 5 of
 * the result. In decimal mode the chip also runs its BCD fixup on the
 * result using the nibbles of the AND.
 */
func (cpu *CPUState) doArr(value byte){
    and := cpu.A & value
    carryIn := byte(cpu.carryBit())
    result := (and >> 1) | (carryIn << 7)

    if !cpu.decimalMode() {
        cpu.setNZ(result)
        cpu.SetCarryFlag(result & 0x40 != 0)
        cpu.SetOverflowFlag(((result >> 6) ^ (result >> 5)) & 1 != 0)
        cpu.A = result
        return
    }

    cpu.SetNegativeFlag(carryIn != 0)
    cpu.SetZeroFlag(result == 0)
    cpu.SetOverflowFlag((result ^ and) & 0x40 != 0)

    if (and & 0xf) + (and & 0x1) > 0x5 {
        result = (result & 0xf0) | ((result + 0x6) & 0xf)
    }
    if uint16(and & 0xf0) + uint16(and & 0x10) > 0x50 {
        result = result + 0x60
        cpu.SetCarryFlag(true)
    } else {
        cpu.SetCarryFlag(false)
    }
    cpu.A = result
}

func (cpu *CPUState) loadA(value byte){
    cpu.A = value
    cpu.setNZ(value)
}

func (cpu *CPUState) loadX(value byte){
    cpu.X = value
    cpu.setNZ(value)
}

func (cpu *CPUState) loadY(value byte){
    cpu.Y = value
    cpu.setNZ(value)
}
