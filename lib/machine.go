package lib

import (
    "bytes"
    "fmt"
    "log"

    "github.com/kazzmir/nes6502/data"
)

/* http://wiki.nesdev.com/w/index.php/CPU_memory_map */
type NESBus struct {
    Ram [0x800]byte
    PPU *PPUState
    Mapper Mapper

    /* APU and controller registers, 0x4000-0x401f */
    io [0x20]byte
    /* the last value driven on the data bus, returned for unmapped reads */
    openBus byte

    Debug uint
}

func (bus *NESBus) read(address uint16, peek bool) byte {
    switch {
        case address < 0x2000:
            return bus.Ram[address & 0x7ff]
        case address < 0x4000:
            if peek {
                return bus.PPU.PeekRegister(address)
            }
            return bus.PPU.ReadRegister(address)
        case address < 0x4020:
            switch address {
                case 0x4015, 0x4016, 0x4017:
                    return bus.io[address - 0x4000]
            }
            /* the rest of the apu registers are write only */
            return bus.openBus
    }

    if bus.Mapper == nil {
        return bus.openBus
    }
    return bus.Mapper.Read(address)
}

func (bus *NESBus) Read(address uint16) byte {
    value := bus.read(address, false)
    bus.openBus = value
    return value
}

func (bus *NESBus) Peek(address uint16) byte {
    return bus.read(address, true)
}

func (bus *NESBus) Write(address uint16, value byte){
    bus.openBus = value
    switch {
        case address < 0x2000:
            bus.Ram[address & 0x7ff] = value
        case address < 0x4000:
            bus.PPU.WriteRegister(address, value)
        case address < 0x4020:
            bus.io[address - 0x4000] = value
        default:
            if bus.Mapper == nil {
                return
            }
            err := bus.Mapper.Write(address, value)
            if err != nil && bus.Debug > 0 {
                log.Printf("bus: %v", err)
            }
    }
}

/* The machine around the cpu: owns the bus, the ppu signal generator and
 * the cartridge, and delivers the vblank NMI to the cpu.
 */
type Emulator struct {
    CPU *CPUState
    PPU PPUState
    Bus *NESBus
    Cartridge NESFile
    /* the rom the emulator was last loaded from, empty for the built in preset */
    Path string
    /* rom loaded by Preset, the embedded preset rom when empty */
    PresetPath string
}

func NewEmulator(variant Variant) *Emulator {
    emulator := &Emulator{
        PPU: MakePPU(),
    }
    emulator.Bus = &NESBus{
        PPU: &emulator.PPU,
    }
    emulator.CPU = NewCPU(emulator.Bus, variant)
    emulator.CPU.Tracer.Clock = &emulator.PPU
    return emulator
}

func (emulator *Emulator) Load(path string) error {
    nesFile, err := ParseNesFile(path)
    if err != nil {
        return err
    }
    err = emulator.Insert(nesFile)
    if err != nil {
        return err
    }
    emulator.Path = path
    return nil
}

/* plug in a cartridge and power the machine on */
func (emulator *Emulator) Insert(nesFile NESFile) error {
    mapper, err := MakeMapper(nesFile.Mapper, nesFile.ProgramRom)
    if err != nil {
        return err
    }
    emulator.Cartridge = nesFile
    emulator.Bus.Mapper = mapper
    emulator.Path = ""
    emulator.DebugReset()
    return nil
}

/* load the configured preset rom, or the one built into the binary */
func (emulator *Emulator) Preset() error {
    if emulator.PresetPath != "" {
        return emulator.Load(emulator.PresetPath)
    }
    nesFile, err := ParseNes(bytes.NewReader(data.PresetRom()))
    if err != nil {
        return fmt.Errorf("built in preset rom: %w", err)
    }
    return emulator.Insert(nesFile)
}

/* power cycle without reloading the cartridge: ram cleared, ppu at the top
 * of the frame, cpu through its reset sequence, trace emptied.
 */
func (emulator *Emulator) DebugReset() {
    emulator.Bus.Ram = [0x800]byte{}
    emulator.Bus.io = [0x20]byte{}
    emulator.Bus.openBus = 0
    emulator.PPU.Reset()
    emulator.CPU.PowerOn()
    emulator.PPU.Run(emulator.CPU.Cycles() * 3)
    emulator.CPU.Tracer.Clear()
}

func (emulator *Emulator) step() error {
    before := emulator.CPU.Cycles()
    err := emulator.CPU.Step()
    if err != nil {
        return err
    }
    if emulator.PPU.Run((emulator.CPU.Cycles() - before) * 3) {
        emulator.CPU.NMI()
    }
    return nil
}

func (emulator *Emulator) Step(count int) error {
    for i := 0; i < count; i++ {
        err := emulator.step()
        if err != nil {
            return err
        }
    }
    return nil
}

/* step until done returns true, at most limit steps when limit > 0 */
func (emulator *Emulator) StepUntil(done func(*Emulator) bool, limit int) (int, error) {
    steps := 0
    for !done(emulator) {
        if limit > 0 && steps >= limit {
            return steps, fmt.Errorf("condition not reached after %v steps at PC 0x%04x", steps, emulator.CPU.PC)
        }
        err := emulator.step()
        if err != nil {
            return steps, err
        }
        steps += 1
    }
    return steps, nil
}

func (emulator *Emulator) GetNMI() bool {
    return emulator.PPU.NMILine()
}

func (emulator *Emulator) GetVBlank() bool {
    return emulator.PPU.IsVerticalBlank()
}

func (emulator *Emulator) EnableTrace(capacity int){
    emulator.CPU.Tracer.Enable(capacity)
}

func (emulator *Emulator) DisableTrace(){
    emulator.CPU.Tracer.Disable()
}

func (emulator *Emulator) TraceLines() []string {
    return emulator.CPU.Tracer.Lines()
}

func (emulator *Emulator) LogLine() (string, error) {
    return emulator.CPU.LogLine()
}
