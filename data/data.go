package data

import (
    _ "embed"
)

/* A tiny NROM image: waits for vblank, enables NMI, counts frames at $00 in
 * the NMI handler and parks the main loop on JMP $805E.
 */
//go:embed roms/preset.nes
var presetRom []byte

func PresetRom() []byte {
    out := make([]byte, len(presetRom))
    copy(out, presetRom)
    return out
}
