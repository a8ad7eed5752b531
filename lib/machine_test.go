package lib

import (
    "bytes"
    "errors"
    "strings"
    "testing"

    "github.com/kazzmir/nes6502/data"
)

func makeRom(mapper byte, prgBanks int) []byte {
    header := []byte{'N', 'E', 'S', 0x1a, byte(prgBanks), 1, (mapper & 0xf) << 4, mapper & 0xf0, 0, 0, 0, 0, 0, 0, 0, 0}
    rom := append([]byte{}, header...)
    for bank := 0; bank < prgBanks; bank++ {
        rom = append(rom, bytes.Repeat([]byte{byte(bank)}, 0x4000)...)
    }
    return append(rom, make([]byte, 0x2000)...)
}

func TestParseNes(test *testing.T){
    nesFile, err := ParseNes(bytes.NewReader(data.PresetRom()))
    if err != nil {
        test.Fatalf("could not parse preset rom: %v", err)
    }
    if nesFile.Mapper != 0 || len(nesFile.ProgramRom) != 0x4000 || len(nesFile.CharacterRom) != 0x2000 {
        test.Fatalf("unexpected rom layout: mapper %v prg %v chr %v", nesFile.Mapper, len(nesFile.ProgramRom), len(nesFile.CharacterRom))
    }
    if nesFile.Mirroring != MirrorVertical {
        test.Fatalf("expected vertical mirroring")
    }

    nesFile, err = ParseNes(bytes.NewReader(makeRom(0x12, 2)))
    if err != nil {
        test.Fatalf("could not parse rom: %v", err)
    }
    if nesFile.Mapper != 0x12 || len(nesFile.ProgramRom) != 0x8000 {
        test.Fatalf("expected mapper 0x12 with 32k of prg but got %v %v", nesFile.Mapper, len(nesFile.ProgramRom))
    }

    _, err = ParseNes(bytes.NewReader([]byte("not a rom at all")))
    if err == nil {
        test.Fatalf("garbage should not parse")
    }

    _, err = ParseNes(bytes.NewReader(makeRom(0, 1)[:0x100]))
    if err == nil {
        test.Fatalf("truncated rom should not parse")
    }
}

func TestMappers(test *testing.T){
    nrom, err := MakeMapper(0, bytes.Repeat([]byte{0x5a}, 0x4000))
    if err != nil {
        test.Fatalf("could not make nrom: %v", err)
    }
    if nrom.Read(0x8000) != 0x5a || nrom.Read(0xc123) != 0x5a {
        test.Fatalf("16k nrom should be mirrored")
    }
    nrom.Write(0x6000, 0x33)
    if nrom.Read(0x6000) != 0x33 {
        test.Fatalf("program ram not writable")
    }
    if nrom.Write(0x8000, 1) == nil {
        test.Fatalf("nrom has no registers")
    }

    nesFile, _ := ParseNes(bytes.NewReader(makeRom(2, 4)))
    uxrom, err := MakeMapper(nesFile.Mapper, nesFile.ProgramRom)
    if err != nil {
        test.Fatalf("could not make uxrom: %v", err)
    }
    if uxrom.Read(0x8000) != 0 || uxrom.Read(0xc000) != 3 {
        test.Fatalf("uxrom power on banks wrong: %v %v", uxrom.Read(0x8000), uxrom.Read(0xc000))
    }
    uxrom.Write(0x8000, 2)
    if uxrom.Read(0x8000) != 2 || uxrom.Read(0xffff) != 3 {
        test.Fatalf("uxrom bank switch failed")
    }

    nesFile, _ = ParseNes(bytes.NewReader(makeRom(1, 4)))
    mmc1, err := MakeMapper(nesFile.Mapper, nesFile.ProgramRom)
    if err != nil {
        test.Fatalf("could not make mmc1: %v", err)
    }
    if mmc1.Read(0xc000) != 3 {
        test.Fatalf("mmc1 should start with the last bank fixed high")
    }
    /* select bank 2, one bit per write, low bit first */
    for _, bit := range []byte{0, 1, 0, 0, 0} {
        mmc1.Write(0xe000, bit)
    }
    if mmc1.Read(0x8000) != 2 || mmc1.Read(0xc000) != 3 {
        test.Fatalf("mmc1 bank switch failed: %v %v", mmc1.Read(0x8000), mmc1.Read(0xc000))
    }

    _, err = MakeMapper(4, nesFile.ProgramRom)
    if !errors.Is(err, ErrUnsupportedMapper) {
        test.Fatalf("expected unsupported mapper but got %v", err)
    }
}

func TestPPUVerticalBlank(test *testing.T){
    ppu := MakePPU()
    ppu.SetControllerFlags(0x80)

    if ppu.Run(VBlankScanline * DotsPerScanline) {
        test.Fatalf("nmi raised too early")
    }
    if ppu.IsVerticalBlank() {
        test.Fatalf("vblank set too early")
    }
    if !ppu.Run(1) {
        test.Fatalf("expected nmi at scanline 241 dot 1")
    }
    if !ppu.NMILine() {
        test.Fatalf("nmi line should be active during vblank")
    }

    if ppu.ReadStatus() & 0x80 == 0 || ppu.IsVerticalBlank() {
        test.Fatalf("reading status should report and then clear vblank")
    }

    /* enabling nmi during vblank raises one right away */
    ppu.SetControllerFlags(0)
    ppu.SetVerticalBlankFlag(true)
    ppu.WriteRegister(0x2000, 0x80)
    if !ppu.Run(0) {
        test.Fatalf("enabling nmi in vblank should raise one")
    }

    ppu.Run((PreRenderScanline - VBlankScanline) * DotsPerScanline)
    if ppu.IsVerticalBlank() {
        test.Fatalf("vblank should be cleared on the pre-render line")
    }
}

func TestBusMirroring(test *testing.T){
    emulator := NewEmulator(Ricoh2A03)
    bus := emulator.Bus

    bus.Write(0x0001, 0x5)
    if bus.Read(0x0801) != 0x5 || bus.Read(0x1801) != 0x5 {
        test.Fatalf("ram should be mirrored every 2k")
    }

    emulator.PPU.SetVerticalBlankFlag(true)
    if bus.Peek(0x3ffa) & 0x80 == 0 || !emulator.GetVBlank() {
        test.Fatalf("peek should not clear vblank")
    }
    if bus.Read(0x2002) & 0x80 == 0 || emulator.GetVBlank() {
        test.Fatalf("reading 0x2002 should clear vblank")
    }
}

func TestEmulatorPreset(test *testing.T){
    emulator := NewEmulator(Ricoh2A03)
    err := emulator.Preset()
    if err != nil {
        test.Fatalf("could not load preset: %v", err)
    }

    if emulator.CPU.PC != 0x8000 || emulator.CPU.Cycles() != 7 {
        test.Fatalf("unexpected reset state %v", emulator.CPU)
    }

    line, err := emulator.LogLine()
    if err != nil || line[:8] != "8000  78" {
        test.Fatalf("unexpected first trace line '%v': %v", line, err)
    }

    _, err = emulator.StepUntil(func(emulator *Emulator) bool {
        return emulator.CPU.PC == 0x805e
    }, 100000)
    if err != nil {
        test.Fatalf("never reached the main loop: %v", err)
    }

    if emulator.Bus.Ram[0x10] != 1 {
        test.Fatalf("the preset should store 1 at $10")
    }
    if !emulator.PPU.GetNMIOutput() {
        test.Fatalf("the preset should enable nmi")
    }

    /* the nmi handler counts frames at $00 */
    _, err = emulator.StepUntil(func(emulator *Emulator) bool {
        return emulator.Bus.Ram[0] >= 3
    }, 200000)
    if err != nil {
        test.Fatalf("nmi handler did not run: %v", err)
    }

    emulator.EnableTrace(16)
    emulator.Step(16)
    if len(emulator.TraceLines()) != 16 {
        test.Fatalf("expected 16 trace lines")
    }

    emulator.DebugReset()
    if emulator.CPU.PC != 0x8000 || emulator.Bus.Ram[0] != 0 || len(emulator.TraceLines()) != 0 {
        test.Fatalf("debug reset did not restore the power on state")
    }
    if emulator.CPU.Cycles() != 7 {
        test.Fatalf("debug reset should leave the cpu at cycle 7, not %v", emulator.CPU.Cycles())
    }
    line, err = emulator.LogLine()
    if err != nil || !strings.HasSuffix(line, "V:0   H:21  Fr:0 Cycle:7") {
        test.Fatalf("the ppu should be 21 dots into the frame after a reset: '%v' %v", line, err)
    }
}

func TestEmulatorBadRom(test *testing.T){
    emulator := NewEmulator(Ricoh2A03)
    err := emulator.Load("/does/not/exist.nes")
    if err == nil {
        test.Fatalf("loading a missing file should fail")
    }

    nesFile, _ := ParseNes(bytes.NewReader(makeRom(9, 2)))
    err = emulator.Insert(nesFile)
    if !errors.Is(err, ErrUnsupportedMapper) {
        test.Fatalf("expected unsupported mapper but got %v", err)
    }
}
