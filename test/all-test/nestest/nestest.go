package nestest

/* Run nestest.nes in automation mode: start at 0xc000 instead of the reset
 * vector and stop when the official and illegal opcode tests return to 0xc66e.
 * The rom leaves an error code for each half at 0x02 and 0x03, zero is a pass.
 * When nestest.log is around the cpu trace is compared against it line by line.
 */

import (
    "fmt"
    "log"

    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/lib/tracelog"
    "github.com/kazzmir/nes6502/util"
)

const StartPC = 0xc000
const EndPC = 0xc66e

const OfficialResult = 0x02
const IllegalResult = 0x03

/* nestest.log is a little under 9000 lines */
const TraceCapacity = 10000
const StepLimit = 100000

const MaxMismatches = 5

type Result struct {
    Steps int
    Official byte
    Illegal byte
    Trace []string
    Mismatches []tracelog.Mismatch
}

func (result *Result) Passed() bool {
    return result.Official == 0 && result.Illegal == 0 && len(result.Mismatches) == 0
}

/* golden may be nil to skip the trace comparison */
func RunFile(nesFile nes.NESFile, golden []tracelog.Entry) (Result, error) {
    emulator := nes.NewEmulator(nes.Ricoh2A03)
    err := emulator.Insert(nesFile)
    if err != nil {
        return Result{}, err
    }

    emulator.CPU.Tracer.Format = nes.TraceNestest
    emulator.EnableTrace(TraceCapacity)
    emulator.CPU.PC = StartPC

    steps, err := emulator.StepUntil(func(emulator *nes.Emulator) bool {
        return emulator.CPU.PC == EndPC
    }, StepLimit)
    if err != nil {
        return Result{}, err
    }

    result := Result{
        Steps: steps,
        Official: emulator.Bus.Ram[OfficialResult],
        Illegal: emulator.Bus.Ram[IllegalResult],
        Trace: emulator.TraceLines(),
    }

    /* the log ends with the instruction at the end address */
    last, err := emulator.LogLine()
    if err != nil {
        return result, err
    }
    result.Trace = append(result.Trace, last)

    if golden != nil {
        var actual []tracelog.Entry
        for i, line := range result.Trace {
            entry, err := tracelog.ParseLine(line)
            if err != nil {
                return result, fmt.Errorf("trace line %v: %w", i + 1, err)
            }
            actual = append(actual, entry)
        }
        result.Mismatches = tracelog.Diff(golden, actual, MaxMismatches)
    }

    return result, nil
}

func Run(rom string, logPath string, debug bool) (bool, error) {
    nesFile, err := nes.ParseNesFile(rom)
    if err != nil {
        return false, err
    }

    var golden []tracelog.Entry
    if logPath != "" {
        golden, err = tracelog.ParseFile(logPath)
        if err != nil {
            log.Printf("Not comparing against %v: %v", logPath, err)
            golden = nil
        }
    }

    result, err := RunFile(nesFile, golden)
    if err != nil {
        return false, err
    }

    if debug {
        log.Printf("nestest finished in %v instructions", result.Steps)
    }

    if result.Official != 0 {
        log.Print(util.Failure(fmt.Sprintf("nestest official opcodes, code 0x%02x", result.Official)))
    }
    if result.Illegal != 0 {
        log.Print(util.Failure(fmt.Sprintf("nestest illegal opcodes, code 0x%02x", result.Illegal)))
    }
    for _, mismatch := range result.Mismatches {
        log.Print(util.Failure(mismatch.String()))
        if mismatch.Expected != nil {
            log.Printf("  expected: %v", mismatch.Expected.Text)
        }
        if mismatch.Actual != nil {
            log.Printf("  actual:   %v", mismatch.Actual.Text)
        }
    }

    return result.Passed(), nil
}
