package lib

import (
    "errors"
    "fmt"
    "log"
)

var ErrUnsupportedMapper = errors.New("unsupported mapper")

/* cartridge space, 0x4020-0xffff. Reads must not have side effects so the
 * bus can also use them for peeking.
 */
type Mapper interface {
    Read(address uint16) byte
    Write(address uint16, value byte) error
    Name() string
}

func MakeMapper(mapper uint32, bankMemory []byte) (Mapper, error) {
    if len(bankMemory) < 0x4000 {
        return nil, fmt.Errorf("program rom is only %v bytes", len(bankMemory))
    }
    switch mapper {
        case 0: return MakeMapper0(bankMemory), nil
        case 1: return MakeMapper1(bankMemory), nil
        case 2: return MakeMapper2(bankMemory), nil
        default: return nil, fmt.Errorf("%w: %v", ErrUnsupportedMapper, mapper)
    }
}

/* 8k of battery/work ram at 0x6000-0x7fff, present on every board here */
type programRam struct {
    Ram [0x2000]byte
}

func (ram *programRam) readRam(address uint16) (byte, bool) {
    if address >= 0x6000 && address < 0x8000 {
        return ram.Ram[address - 0x6000], true
    }
    return 0, false
}

func (ram *programRam) writeRam(address uint16, value byte) bool {
    if address >= 0x6000 && address < 0x8000 {
        ram.Ram[address - 0x6000] = value
        return true
    }
    return false
}

/* NROM: 16k mirrored into both halves of 0x8000-0xffff, or 32k flat
 * http://wiki.nesdev.com/w/index.php/Programming_NROM
 */
type Mapper0 struct {
    programRam
    BankMemory []byte
}

func (mapper *Mapper0) Name() string {
    return "NROM"
}

func (mapper *Mapper0) Read(address uint16) byte {
    if value, ok := mapper.readRam(address); ok {
        return value
    }
    if address < 0x8000 {
        return 0
    }
    offset := int(address - 0x8000) % len(mapper.BankMemory)
    return mapper.BankMemory[offset]
}

func (mapper *Mapper0) Write(address uint16, value byte) error {
    if mapper.writeRam(address, value) {
        return nil
    }
    return fmt.Errorf("mapper0 does not support bank switching at address 0x%x: 0x%x", address, value)
}

func MakeMapper0(bankMemory []byte) Mapper {
    return &Mapper0{
        BankMemory: bankMemory,
    }
}

/* http://wiki.nesdev.com/w/index.php/MMC1
 * only program rom banking, character memory is never read
 */
type Mapper1 struct {
    programRam
    BankMemory []byte
    /* how many bits to left shift the next value */
    shift int
    /* the value to pass to the mmc */
    register uint8

    mirror byte
    prgBankMode byte
    chrBankMode byte
    prgBank byte

    Debug uint
}

func (mapper *Mapper1) Name() string {
    return "MMC1"
}

func (mapper *Mapper1) banks() int {
    return len(mapper.BankMemory) / 0x4000
}

func (mapper *Mapper1) bankOffset(bank int, address uint16) byte {
    bank = bank % mapper.banks()
    return mapper.BankMemory[bank * 0x4000 + int(address & 0x3fff)]
}

func (mapper *Mapper1) Read(address uint16) byte {
    if value, ok := mapper.readRam(address); ok {
        return value
    }
    if address < 0x8000 {
        return 0
    }

    low := address < 0xc000
    bank := int(mapper.prgBank & 0xf)
    switch mapper.prgBankMode {
        case 0, 1:
            /* 32k at a time, the low bit of the bank is ignored */
            bank = bank &^ 1
            if !low {
                bank += 1
            }
        case 2:
            if low {
                bank = 0
            }
        case 3:
            if !low {
                bank = mapper.banks() - 1
            }
    }
    return mapper.bankOffset(bank, address)
}

func (mapper *Mapper1) Write(address uint16, value byte) error {
    if mapper.writeRam(address, value) {
        return nil
    }
    if address < 0x8000 {
        return fmt.Errorf("mapper1: write to unmapped address 0x%x", address)
    }

    /* if bit 7 is set then clear the shift register */
    if value >> 7 == 1 {
        mapper.shift = 0
        mapper.register = 0
        mapper.prgBankMode = 3
        return nil
    }

    /* shift a single bit into the internal register */
    mapper.register = ((value & 0x1) << mapper.shift) | mapper.register
    mapper.shift += 1

    if mapper.shift == 5 {
        if mapper.Debug > 0 {
            log.Printf("mapper1: write internal register 0x%x to 0x%x", mapper.register, address)
        }

        switch {
            case address <= 0x9fff:
                /* CPPMM */
                mapper.mirror = mapper.register & 0x3
                mapper.prgBankMode = (mapper.register >> 2) & 0x3
                mapper.chrBankMode = (mapper.register >> 4) & 0x1
            case address <= 0xdfff:
                /* character banks, nothing to do without a renderer */
            default:
                mapper.prgBank = mapper.register & 0xf
        }

        /* after the 5th write reset the internal register and shift */
        mapper.shift = 0
        mapper.register = 0
    }

    return nil
}

func MakeMapper1(bankMemory []byte) Mapper {
    return &Mapper1{
        BankMemory: bankMemory,
        prgBankMode: 3,
    }
}

/* UxROM: switchable 16k at 0x8000, last bank fixed at 0xc000 */
type Mapper2 struct {
    programRam
    BankMemory []byte
    bank int
}

func (mapper *Mapper2) Name() string {
    return "UxROM"
}

func (mapper *Mapper2) Read(address uint16) byte {
    if value, ok := mapper.readRam(address); ok {
        return value
    }
    if address < 0x8000 {
        return 0
    }
    banks := len(mapper.BankMemory) / 0x4000
    bank := mapper.bank % banks
    if address >= 0xc000 {
        bank = banks - 1
    }
    return mapper.BankMemory[bank * 0x4000 + int(address & 0x3fff)]
}

func (mapper *Mapper2) Write(address uint16, value byte) error {
    if mapper.writeRam(address, value) {
        return nil
    }
    if address < 0x8000 {
        return fmt.Errorf("mapper2: write to unmapped address 0x%x", address)
    }
    mapper.bank = int(value)
    return nil
}

func MakeMapper2(bankMemory []byte) Mapper {
    return &Mapper2{
        BankMemory: bankMemory,
    }
}
