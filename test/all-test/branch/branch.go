package branch

import (
    "fmt"
    "log"
    "path/filepath"

    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/util"
)

/* Run blargg's branch timing tests. Unzip them into 'test-roms' such that 'test-roms/branch_timing_tests' exists.
 * This test will run
 *   1.Branch_Basics.nes
 *   2.Backward_Branch.nes
 *   3.Forward_Branch.nes
 * And expects a passing value (1) to be written to address 0xf8
 */

const ResultAddress = 0xf8

const Instructions = 150000

var Roms = []string{
    "1.Branch_Basics.nes",
    "2.Backward_Branch.nes",
    "3.Forward_Branch.nes",
}

/* run the rom for a fixed number of instructions and check what was written to 0xf8 */
func doTest(rom string, debug bool) (bool, error) {
    emulator := nes.NewEmulator(nes.Ricoh2A03)
    err := emulator.Load(rom)
    if err != nil {
        return false, err
    }
    if debug {
        emulator.CPU.Debug = 1
    }

    err = emulator.Step(Instructions)
    if err != nil {
        return false, fmt.Errorf("%v: %w", rom, err)
    }

    return emulator.Bus.Ram[ResultAddress] == 1, nil
}

func Run(directory string, debug bool) (bool, error) {
    ok := true
    for i, rom := range Roms {
        passed, err := doTest(filepath.Join(directory, "branch_timing_tests", rom), debug)
        if err != nil {
            return false, err
        }

        name := fmt.Sprintf("Branch test %v", i + 1)
        if passed {
            log.Print(util.Success(name))
        } else {
            log.Print(util.Failure(name))
        }
        ok = ok && passed
    }

    return ok, nil
}
