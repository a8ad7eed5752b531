package nestest

import (
    "bytes"
    "testing"

    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/lib/tracelog"
)

/* a single 16k bank, so 0xc000 is the start of the bank */
func makeNestest(program []byte) nes.NESFile {
    header := []byte{'N', 'E', 'S', 0x1a, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
    prg := make([]byte, 0x4000)
    copy(prg, program)
    /* jmp $c66e at the end address */
    copy(prg[EndPC - StartPC:], []byte{0x4c, 0x6e, 0xc6})
    /* reset vector somewhere harmless */
    copy(prg[0x3ffc:], []byte{0x6e, 0xc6})

    rom := append(append(header, prg...), make([]byte, 0x2000)...)
    nesFile, err := nes.ParseNes(bytes.NewReader(rom))
    if err != nil {
        panic(err)
    }
    return nesFile
}

var passing = []byte{
    0xa9, 0x00, // lda #$00
    0x85, 0x02, // sta $02
    0x85, 0x03, // sta $03
    0x4c, 0x6e, 0xc6, // jmp $c66e
}

func TestRunPass(test *testing.T){
    result, err := RunFile(makeNestest(passing), nil)
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }
    if !result.Passed() {
        test.Fatalf("expected a pass: %+v", result)
    }
    if result.Steps != 4 || len(result.Trace) != 5 {
        test.Fatalf("unexpected steps %v trace %v", result.Steps, len(result.Trace))
    }
    if result.Trace[0][:4] != "C000" || result.Trace[4][:4] != "C66E" {
        test.Fatalf("unexpected trace ends '%v' '%v'", result.Trace[0], result.Trace[4])
    }
}

func TestRunGolden(test *testing.T){
    first, err := RunFile(makeNestest(passing), nil)
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }

    var golden []tracelog.Entry
    for _, line := range first.Trace {
        entry, err := tracelog.ParseLine(line)
        if err != nil {
            test.Fatalf("could not parse '%v': %v", line, err)
        }
        golden = append(golden, entry)
    }

    second, err := RunFile(makeNestest(passing), golden)
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }
    if !second.Passed() {
        test.Fatalf("identical runs should match: %v", second.Mismatches)
    }

    /* pretend the golden log had a different accumulator on the second line */
    golden[1].A = 0x33
    third, err := RunFile(makeNestest(passing), golden)
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }
    if third.Passed() || len(third.Mismatches) != 1 || third.Mismatches[0].Index != 1 {
        test.Fatalf("expected one mismatch on the second line: %v", third.Mismatches)
    }
}

func TestRunFailureCode(test *testing.T){
    failing := []byte{
        0xa9, 0x00, // lda #$00
        0x85, 0x02, // sta $02
        0xa9, 0x15, // lda #$15
        0x85, 0x03, // sta $03
        0x4c, 0x6e, 0xc6, // jmp $c66e
    }
    result, err := RunFile(makeNestest(failing), nil)
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }
    if result.Passed() || result.Illegal != 0x15 || result.Official != 0 {
        test.Fatalf("expected illegal code 0x15: %+v", result)
    }
}
