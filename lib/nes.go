package lib

import (
    "bytes"
    "fmt"
    "io"
    "log"
    "math"
    "os"
)

/* https://www.nesdev.org/wiki/INES */

func isINes(check []byte) bool {
    if len(check) != 4 {
        return false
    }

    return bytes.Equal(check, []byte{'N', 'E', 'S', 0x1a})
}

func isNes2(nesHeader []byte) bool {
    if len(nesHeader) < 8 {
        return false
    }

    /* bits 2 and 3 of byte 7 are 10 for nes 2.0 */
    return nesHeader[7] & 0xc == 0x8
}

/* nes 2.0 allows an exponent-multiplier form when the high nibble is 0xf */
func romSize(lsb byte, msb byte, unit uint64) uint64 {
    if msb == 15 {
        low2 := lsb & 3
        exponent := lsb >> 2
        return uint64(math.Pow(2.0, float64(exponent))) * uint64(low2*2 + 1)
    }
    return ((uint64(msb) << 8) + uint64(lsb)) * unit
}

func readPRG(header []byte, nes2 bool) uint64 {
    var msb byte
    if nes2 {
        msb = header[9] & 15
    }
    return romSize(header[4], msb, 0x4000)
}

func readCHR(header []byte, nes2 bool) uint64 {
    var msb byte
    if nes2 {
        msb = (header[9] >> 4) & 15
    }
    return romSize(header[5], msb, 0x2000)
}

func readMapper(header []byte, nes2 bool) uint32 {
    low := uint32(header[6] >> 4)
    /* old dumps sometimes have garbage in bytes 7-15, only trust the upper
     * nibble of byte 7 when the tail of the header is clean
     */
    if nes2 || bytes.Equal(header[12:16], []byte{0, 0, 0, 0}) {
        low |= uint32(header[7] & 0xf0)
    }
    return low
}

type Mirroring int

const (
    MirrorHorizontal Mirroring = iota
    MirrorVertical
    MirrorFourScreen
)

type NESFile struct {
    ProgramRom []byte
    CharacterRom []byte
    Mapper uint32
    Mirroring Mirroring
    Nes2 bool
    HasBattery bool
}

func ParseNesFile(path string) (NESFile, error) {
    file, err := os.Open(path)
    if err != nil {
        return NESFile{}, err
    }
    defer file.Close()

    nesFile, err := ParseNes(file)
    if err != nil {
        return NESFile{}, fmt.Errorf("%v: %w", path, err)
    }

    log.Printf("Loaded %v: PRG-ROM %v CHR-ROM %v mapper %v nes2 %v", path, len(nesFile.ProgramRom), len(nesFile.CharacterRom), nesFile.Mapper, nesFile.Nes2)

    return nesFile, nil
}

func ParseNes(reader io.Reader) (NESFile, error) {
    header := make([]byte, 16)
    _, err := io.ReadFull(reader, header)
    if err != nil {
        return NESFile{}, fmt.Errorf("could not read header: %w", err)
    }

    if !isINes(header[0:4]) {
        return NESFile{}, fmt.Errorf("not an nes file")
    }

    nes2 := isNes2(header)

    prgRomSize := readPRG(header, nes2)
    chrRomSize := readCHR(header, nes2)

    hasTrainer := (header[6] & 4) == 4
    if hasTrainer {
        trainer := make([]byte, 512)
        _, err = io.ReadFull(reader, trainer)
        if err != nil {
            return NESFile{}, fmt.Errorf("could not read trainer: %w", err)
        }
    }

    programRom := make([]byte, prgRomSize)
    _, err = io.ReadFull(reader, programRom)
    if err != nil {
        return NESFile{}, fmt.Errorf("could not read %v bytes of program rom: %w", prgRomSize, err)
    }

    characterRom := make([]byte, chrRomSize)
    _, err = io.ReadFull(reader, characterRom)
    if err != nil {
        return NESFile{}, fmt.Errorf("could not read %v bytes of character rom: %w", chrRomSize, err)
    }

    mirroring := MirrorHorizontal
    if header[6] & 8 == 8 {
        mirroring = MirrorFourScreen
    } else if header[6] & 1 == 1 {
        mirroring = MirrorVertical
    }

    return NESFile{
        ProgramRom: programRom,
        CharacterRom: characterRom,
        Mapper: readMapper(header, nes2),
        Mirroring: mirroring,
        Nes2: nes2,
        HasBattery: header[6] & 2 == 2,
    }, nil
}
