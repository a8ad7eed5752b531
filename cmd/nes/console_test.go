package main

import (
    "bytes"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/kazzmir/nes6502/cmd/nes/common"
    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/util"
)

func makeTestConsole(test *testing.T) (*Console, *bytes.Buffer) {
    util.SetupColor(true)
    emulator := nes.NewEmulator(nes.Ricoh2A03)
    err := emulator.Preset()
    if err != nil {
        test.Fatalf("could not load the preset rom: %v", err)
    }
    var output bytes.Buffer
    console := MakeConsole(emulator, common.DefaultConfigData(), &output)
    test.Cleanup(console.Close)
    return console, &output
}

func mustExecute(test *testing.T, console *Console, line string){
    err := console.Execute(line)
    if err != nil {
        test.Fatalf("'%v' failed: %v", line, err)
    }
}

func TestConsoleStep(test *testing.T){
    console, output := makeTestConsole(test)
    if console.Emulator.CPU.PC != 0x8000 {
        test.Fatalf("preset should start at 0x8000, not 0x%x", console.Emulator.CPU.PC)
    }
    mustExecute(test, console, "step 3")
    if console.Emulator.CPU.Cycles() <= 7 {
        test.Fatalf("step did not advance the cycle counter")
    }
    if !strings.Contains(output.String(), "PC:") && !strings.Contains(output.String(), "A:") {
        test.Fatalf("step should print the next trace line: '%v'", output.String())
    }
}

func TestConsoleUntil(test *testing.T){
    console, output := makeTestConsole(test)
    mustExecute(test, console, "until PC == 0x805E")
    if console.Emulator.CPU.PC != 0x805e {
        test.Fatalf("expected to stop at 0x805e, not 0x%x", console.Emulator.CPU.PC)
    }
    if !strings.Contains(output.String(), "steps") {
        test.Fatalf("until should report the steps taken: '%v'", output.String())
    }

    err := console.Execute("until 100 PC == 0x1234")
    if err == nil {
        test.Fatalf("an unreachable condition should fail after the limit")
    }

    err = console.Execute("until PC ==")
    if err == nil {
        test.Fatalf("a broken expression should be an error")
    }
}

func TestConsoleMemory(test *testing.T){
    console, output := makeTestConsole(test)
    mustExecute(test, console, "poke $10 0x42")
    if console.Emulator.Bus.Ram[0x10] != 0x42 {
        test.Fatalf("poke did not write ram")
    }
    output.Reset()
    mustExecute(test, console, "peek 0x10 2")
    if strings.TrimSpace(output.String()) != "0010: 42 00" {
        test.Fatalf("unexpected peek output '%v'", output.String())
    }

    if console.Execute("poke 0x10 0x100") == nil {
        test.Fatalf("a value over 0xff should be rejected")
    }

    output.Reset()
    mustExecute(test, console, "disasm 0x8000 2")
    if len(strings.Split(strings.TrimSpace(output.String()), "\n")) != 2 {
        test.Fatalf("expected two lines of disassembly: '%v'", output.String())
    }
}

func TestConsoleBreakpoints(test *testing.T){
    console, output := makeTestConsole(test)
    mustExecute(test, console, "break 0x805E")
    mustExecute(test, console, "continue")
    if console.Emulator.CPU.PC != 0x805e {
        test.Fatalf("continue should stop at the breakpoint, not 0x%x", console.Emulator.CPU.PC)
    }
    if !strings.Contains(output.String(), "breakpoint 1") {
        test.Fatalf("expected the breakpoint to be reported: '%v'", output.String())
    }

    mustExecute(test, console, "delete 1")
    if console.Execute("delete 1") == nil {
        test.Fatalf("deleting a missing breakpoint should fail")
    }
    if console.Execute("continue 50") == nil {
        test.Fatalf("continue without breakpoints should hit the limit")
    }
}

func TestConsoleSaveRestore(test *testing.T){
    console, _ := makeTestConsole(test)
    path := filepath.Join(test.TempDir(), "registers.json")

    mustExecute(test, console, "step 5")
    saved := console.Emulator.CPU.Snapshot()
    mustExecute(test, console, "save " + path)
    mustExecute(test, console, "step 5")
    mustExecute(test, console, "restore " + path)

    if console.Emulator.CPU.Snapshot() != saved {
        test.Fatalf("restored %v but saved %v", console.Emulator.CPU.Snapshot(), saved)
    }

    graph := filepath.Join(test.TempDir(), "registers.dot")
    mustExecute(test, console, "graph " + graph)
    data, err := os.ReadFile(graph)
    if err != nil || !strings.Contains(string(data), "digraph") {
        test.Fatalf("graph did not write a graphviz file: %v", err)
    }
}

func TestConsoleScript(test *testing.T){
    console, _ := makeTestConsole(test)
    path := filepath.Join(test.TempDir(), "test.lua")
    script := `
for i = 1, 4 do
    step()
end
poke(0x20, peek(0x8000))
`
    err := os.WriteFile(path, []byte(script), 0644)
    if err != nil {
        test.Fatalf("could not write script: %v", err)
    }

    before := console.Emulator.CPU.Cycles()
    mustExecute(test, console, "script " + path)
    if console.Emulator.CPU.Cycles() <= before {
        test.Fatalf("the script should have stepped the cpu")
    }
    if console.Emulator.Bus.Ram[0x20] != console.Emulator.Bus.Peek(0x8000) {
        test.Fatalf("the script should have copied 0x8000 into 0x20")
    }
}

func TestConsoleTrace(test *testing.T){
    console, output := makeTestConsole(test)
    mustExecute(test, console, "trace on 4")
    mustExecute(test, console, "step 10")
    output.Reset()
    mustExecute(test, console, "trace print")
    lines := strings.Split(strings.TrimSpace(output.String()), "\n")
    if len(lines) != 4 {
        test.Fatalf("expected 4 trace lines, got %v", len(lines))
    }

    path := filepath.Join(test.TempDir(), "trace.log")
    mustExecute(test, console, "trace save " + path)
    data, err := os.ReadFile(path)
    if err != nil || len(strings.Split(strings.TrimSpace(string(data)), "\n")) != 4 {
        test.Fatalf("trace save wrote the wrong thing: %v", err)
    }
    if console.Emulator.CPU.Tracer.Len() != 0 {
        test.Fatalf("saving the trace should empty it")
    }
    mustExecute(test, console, "trace off")
}

func TestConsoleRun(test *testing.T){
    console, output := makeTestConsole(test)
    err := console.Run(strings.NewReader("regs\nflags\nbogus\nquit\nstep\n"))
    if err != nil {
        test.Fatalf("run failed: %v", err)
    }
    if !strings.Contains(output.String(), "unknown command 'bogus'") {
        test.Fatalf("unknown commands should be reported: '%v'", output.String())
    }
    if console.Emulator.CPU.Cycles() != 7 {
        test.Fatalf("nothing after quit should run")
    }

    if !errors.Is(console.Execute("exit"), ErrQuit) {
        test.Fatalf("exit should quit")
    }
    for _, command := range commands {
        if commandTable[command.Name] == nil {
            test.Fatalf("command %v is not in the table", command.Name)
        }
    }
}
