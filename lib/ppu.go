package lib

import (
    "log"
)

/* Only the timing and interrupt side of the ppu: where the beam is, the
 * vertical blank flag and the NMI it raises. Nothing is rendered.
 */
type PPUState struct {
    Control byte
    Mask byte
    Status byte
    Scanline int
    Dot int
    Frame uint64

    /* the other registers are latched so reads through the bus are stable */
    registers [8]byte

    /* an NMI edge waiting to be picked up by Run */
    nmi bool

    Debug uint
}

const (
    ppuControlNMI byte = 1 << 7
    ppuStatusVBlank byte = 1 << 7
    ppuStatusSprite0 byte = 1 << 6
    ppuStatusOverflow byte = 1 << 5

    VBlankScanline = 241
    PreRenderScanline = 261
)

func MakePPU() PPUState {
    return PPUState{}
}

func (ppu *PPUState) Reset() {
    *ppu = PPUState{Debug: ppu.Debug}
}

func (ppu *PPUState) GetNMIOutput() bool {
    return ppu.Control & ppuControlNMI == ppuControlNMI
}

func (ppu *PPUState) IsVerticalBlank() bool {
    return ppu.Status & ppuStatusVBlank == ppuStatusVBlank
}

/* the level of the /NMI line, active while in vblank with NMI enabled */
func (ppu *PPUState) NMILine() bool {
    return ppu.IsVerticalBlank() && ppu.GetNMIOutput()
}

/* enabling NMI while the vblank flag is already set raises one immediately */
func (ppu *PPUState) SetControllerFlags(value byte) {
    before := ppu.NMILine()
    ppu.Control = value
    if !before && ppu.NMILine() {
        ppu.nmi = true
    }
}

func (ppu *PPUState) SetMask(value byte) {
    ppu.Mask = value
}

func (ppu *PPUState) SetVerticalBlankFlag(on bool){
    if on {
        ppu.Status = ppu.Status | ppuStatusVBlank
    } else {
        ppu.Status = ppu.Status & (^ppuStatusVBlank)
    }
}

/* reading PPUSTATUS clears the vblank flag */
func (ppu *PPUState) ReadStatus() byte {
    out := ppu.Status
    ppu.SetVerticalBlankFlag(false)
    return out
}

func (ppu *PPUState) ReadRegister(register uint16) byte {
    switch register & 7 {
        case 2: return ppu.ReadStatus()
    }
    return ppu.registers[register & 7]
}

func (ppu *PPUState) PeekRegister(register uint16) byte {
    switch register & 7 {
        case 0: return ppu.Control
        case 1: return ppu.Mask
        case 2: return ppu.Status
    }
    return ppu.registers[register & 7]
}

func (ppu *PPUState) WriteRegister(register uint16, value byte){
    switch register & 7 {
        case 0: ppu.SetControllerFlags(value)
        case 1: ppu.SetMask(value)
        case 2:
            /* read only */
        default:
            ppu.registers[register & 7] = value
    }
}

/* give a number of PPU cycles (dots) to process
 * returns whether an nmi was raised
 */
func (ppu *PPUState) Run(dots uint64) bool {
    /* http://wiki.nesdev.com/w/index.php/PPU_rendering */
    for i := uint64(0); i < dots; i++ {
        ppu.Dot += 1
        if ppu.Dot >= DotsPerScanline {
            ppu.Dot = 0
            ppu.Scanline += 1
            if ppu.Scanline >= ScanlinesPerFrame {
                ppu.Scanline = 0
                ppu.Frame += 1
            }
        }

        if ppu.Dot == 1 {
            switch ppu.Scanline {
                case VBlankScanline:
                    ppu.SetVerticalBlankFlag(true)
                    if ppu.Debug > 0 {
                        log.Printf("ppu: vertical blank frame %v", ppu.Frame)
                    }
                    /* Only raise NMI if bit 7 of PPUCTRL is set */
                    if ppu.GetNMIOutput() {
                        ppu.nmi = true
                    }
                case PreRenderScanline:
                    ppu.Status = ppu.Status & ^(ppuStatusVBlank | ppuStatusSprite0 | ppuStatusOverflow)
            }
        }
    }

    nmi := ppu.nmi
    ppu.nmi = false
    return nmi
}

/* the ppu position is the trace clock when a machine is attached */
func (ppu *PPUState) Timing(cycle uint64) (uint64, int, int) {
    return ppu.Frame, ppu.Scanline, ppu.Dot
}
