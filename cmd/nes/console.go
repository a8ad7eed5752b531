package main

import (
    "bufio"
    "errors"
    "fmt"
    "io"
    "os"
    "sort"
    "strconv"
    "strings"

    "github.com/bradleyjkemp/memviz"
    "github.com/kazzmir/nes6502/cmd/nes/common"
    "github.com/kazzmir/nes6502/cmd/nes/debug"
    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/util"
    lua "github.com/yuin/gopher-lua"
    "golang.org/x/term"
)

var ErrQuit = errors.New("quit")

type Command struct {
    Name string
    Aliases []string
    Usage string
    Help string
    Run func(console *Console, args []string) error
}

/* filled in by init, the help command reads the table */
var commands []Command
var commandTable map[string]*Command

/* The shell owns one emulator. Everything runs on the caller's goroutine. */
type Console struct {
    Emulator *nes.Emulator
    Debugger *debug.DefaultDebugger
    Config common.ConfigData
    Output io.Writer

    lua *lua.LState
    /* registers as of the last regs command */
    last nes.Snapshot
}

func MakeConsole(emulator *nes.Emulator, config common.ConfigData, output io.Writer) *Console {
    console := &Console{
        Emulator: emulator,
        Debugger: debug.MakeDebugger(),
        Config: config,
        Output: output,
        lua: lua.NewState(),
        last: emulator.CPU.Snapshot(),
    }
    console.setupLua()
    return console
}

func (console *Console) Close(){
    console.lua.Close()
}

func (console *Console) Printf(format string, args ...any){
    fmt.Fprintf(console.Output, format, args...)
}

/* numbers are decimal, 0x hex or $ hex */
func parseNumber(text string, bits int) (uint64, error) {
    if strings.HasPrefix(text, "$") {
        return strconv.ParseUint(text[1:], 16, bits)
    }
    return strconv.ParseUint(text, 0, bits)
}

func parseAddress(text string) (uint16, error) {
    value, err := parseNumber(text, 16)
    if err != nil {
        return 0, fmt.Errorf("invalid address '%v'", text)
    }
    return uint16(value), nil
}

func (console *Console) setupLua(){
    state := console.lua

    state.SetGlobal("step", state.NewFunction(func(state *lua.LState) int {
        count := state.OptInt(1, 1)
        err := console.Emulator.Step(count)
        console.exportRegisters()
        if err != nil {
            state.RaiseError("%v", err)
        }
        return 0
    }))

    state.SetGlobal("peek", state.NewFunction(func(state *lua.LState) int {
        address := state.CheckInt(1)
        state.Push(lua.LNumber(console.Emulator.Bus.Peek(uint16(address))))
        return 1
    }))

    state.SetGlobal("poke", state.NewFunction(func(state *lua.LState) int {
        address := state.CheckInt(1)
        value := state.CheckInt(2)
        console.Emulator.Bus.Write(uint16(address), byte(value))
        return 0
    }))

    console.exportRegisters()
}

func (console *Console) exportRegisters(){
    cpu := console.Emulator.CPU
    state := console.lua
    state.SetGlobal("A", lua.LNumber(cpu.A))
    state.SetGlobal("X", lua.LNumber(cpu.X))
    state.SetGlobal("Y", lua.LNumber(cpu.Y))
    state.SetGlobal("S", lua.LNumber(cpu.SP))
    state.SetGlobal("PC", lua.LNumber(cpu.PC))
    state.SetGlobal("P", lua.LNumber(cpu.Status()))
    state.SetGlobal("cycles", lua.LNumber(cpu.Cycles()))
}

/* compile a lua expression into a predicate over the current registers */
func (console *Console) makePredicate(expression string) (func() (bool, error), error) {
    function, err := console.lua.LoadString("return " + expression)
    if err != nil {
        return nil, fmt.Errorf("bad expression '%v': %w", expression, err)
    }

    return func() (bool, error) {
        console.exportRegisters()
        console.lua.Push(function)
        err := console.lua.PCall(0, 1, nil)
        if err != nil {
            return false, err
        }
        value := console.lua.Get(-1)
        console.lua.Pop(1)
        return lua.LVAsBool(value), nil
    }, nil
}

func (console *Console) RunScript(path string) error {
    console.exportRegisters()
    err := console.lua.DoFile(path)
    if err != nil {
        return fmt.Errorf("script %v: %w", path, err)
    }
    return nil
}

func (console *Console) showLogLine(){
    line, err := console.Emulator.LogLine()
    if err != nil {
        console.Printf("%v\n", err)
        return
    }
    console.Printf("%v\n", line)
}

/* run one shell line */
func (console *Console) Execute(line string) error {
    args := strings.Fields(line)
    if len(args) == 0 {
        return nil
    }
    command, ok := commandTable[strings.ToLower(args[0])]
    if !ok {
        return fmt.Errorf("unknown command '%v', try help", args[0])
    }
    return command.Run(console, args[1:])
}

func (console *Console) report(err error) {
    if err != nil {
        console.Printf("%v\n", util.Failure(err.Error()))
    }
}

/* read commands until quit or the end of the input */
func (console *Console) Run(input io.Reader) error {
    scanner := bufio.NewScanner(input)
    for scanner.Scan() {
        err := console.Execute(scanner.Text())
        if errors.Is(err, ErrQuit) {
            return nil
        }
        console.report(err)
    }
    return scanner.Err()
}

/* interactive loop with line editing when stdin is a terminal */
func (console *Console) Interactive() error {
    fd := int(os.Stdin.Fd())
    if !term.IsTerminal(fd) {
        return console.Run(os.Stdin)
    }

    state, err := term.MakeRaw(fd)
    if err != nil {
        return err
    }
    defer term.Restore(fd, state)

    terminal := term.NewTerminal(struct{
        io.Reader
        io.Writer
    }{os.Stdin, os.Stdout}, "> ")

    output := console.Output
    console.Output = terminal
    defer func(){
        console.Output = output
    }()

    for {
        line, err := terminal.ReadLine()
        if err == io.EOF {
            return nil
        }
        if err != nil {
            return err
        }
        err = console.Execute(line)
        if errors.Is(err, ErrQuit) {
            return nil
        }
        console.report(err)
    }
}

func doHelp(console *Console, args []string) error {
    for _, command := range commands {
        console.Printf("%-28v %v\n", command.Usage, command.Help)
    }
    return nil
}

func doStep(console *Console, args []string) error {
    count := 1
    if len(args) > 0 {
        value, err := strconv.Atoi(args[0])
        if err != nil || value < 1 {
            return fmt.Errorf("invalid step count '%v'", args[0])
        }
        count = value
    }
    err := console.Emulator.Step(count)
    console.showLogLine()
    return err
}

/* until [limit] <expression> */
func doUntil(console *Console, args []string) error {
    limit := console.Config.GetStepLimit()
    if len(args) > 1 {
        value, err := strconv.Atoi(args[0])
        if err == nil {
            limit = value
            args = args[1:]
        }
    }
    if len(args) == 0 {
        return fmt.Errorf("give a lua expression, like: until PC == 0x8000")
    }

    predicate, err := console.makePredicate(strings.Join(args, " "))
    if err != nil {
        return err
    }

    var predicateError error
    steps, err := console.Emulator.StepUntil(func(emulator *nes.Emulator) bool {
        done, err := predicate()
        if err != nil {
            predicateError = err
            return true
        }
        return done
    }, limit)
    if predicateError != nil {
        return predicateError
    }
    console.Printf("%v steps\n", steps)
    console.showLogLine()
    return err
}

func doLog(console *Console, args []string) error {
    console.showLogLine()
    return nil
}

func doRegisters(console *Console, args []string) error {
    now := console.Emulator.CPU.Snapshot()
    last := console.last
    field := func(name string, value string, changed bool) string {
        return util.Highlight(fmt.Sprintf("%v:%v", name, value), changed)
    }
    parts := []string{
        field("PC", fmt.Sprintf("%04X", now.PC), now.PC != last.PC),
        field("A", fmt.Sprintf("%02X", now.A), now.A != last.A),
        field("X", fmt.Sprintf("%02X", now.X), now.X != last.X),
        field("Y", fmt.Sprintf("%02X", now.Y), now.Y != last.Y),
        field("S", fmt.Sprintf("%02X", now.SP), now.SP != last.SP),
        field("P", fmt.Sprintf("%02X", now.Status), now.Status != last.Status),
        field("Cycle", fmt.Sprintf("%v", now.Cycle), now.Cycle != last.Cycle),
    }
    console.Printf("%v\n", strings.Join(parts, " "))
    console.last = now
    return nil
}

func doFlags(console *Console, args []string) error {
    cpu := console.Emulator.CPU
    status := cpu.Status()
    console.Printf("P:%02X %v\n", status, nes.FlagString(status))
    flags := []struct{
        name string
        set bool
    }{
        {"negative", cpu.GetNegativeFlag()},
        {"overflow", cpu.GetOverflowFlag()},
        {"break", cpu.GetBreakFlag()},
        {"decimal", cpu.GetDecimalFlag()},
        {"interrupt", cpu.GetInterruptDisableFlag()},
        {"zero", cpu.GetZeroFlag()},
        {"carry", cpu.GetCarryFlag()},
    }
    for _, flag := range flags {
        console.Printf("  %-10v %v\n", flag.name, util.Highlight(fmt.Sprintf("%v", flag.set), flag.set))
    }
    return nil
}

func doTrace(console *Console, args []string) error {
    if len(args) == 0 {
        tracer := console.Emulator.CPU.Tracer
        console.Printf("trace enabled: %v, %v/%v lines, %v layout\n", tracer.Enabled(), tracer.Len(), tracer.Capacity(), tracer.Format)
        return nil
    }

    tracer := console.Emulator.CPU.Tracer
    switch args[0] {
        case "on":
            capacity := console.Config.TraceCapacity
            if len(args) > 1 {
                value, err := strconv.Atoi(args[1])
                if err != nil || value < 1 {
                    return fmt.Errorf("invalid trace capacity '%v'", args[1])
                }
                capacity = value
            }
            format, err := console.Config.GetTraceFormat()
            if err != nil {
                return err
            }
            tracer.Format = format
            console.Emulator.EnableTrace(capacity)
            console.Printf("tracing %v lines\n", tracer.Capacity())
        case "off":
            console.Emulator.DisableTrace()
        case "print":
            lines := console.Emulator.TraceLines()
            if len(args) > 1 {
                count, err := strconv.Atoi(args[1])
                if err != nil || count < 0 {
                    return fmt.Errorf("invalid line count '%v'", args[1])
                }
                if count < len(lines) {
                    lines = lines[len(lines) - count:]
                }
            }
            for _, line := range lines {
                console.Printf("%v\n", line)
            }
        case "save":
            if len(args) < 2 {
                return fmt.Errorf("give a file to save the trace to")
            }
            file, err := os.Create(args[1])
            if err != nil {
                return err
            }
            defer file.Close()
            count := tracer.Len()
            err = tracer.Flush(file)
            if err != nil {
                return fmt.Errorf("could not save trace: %w", err)
            }
            console.Printf("saved %v lines to %v\n", count, args[1])
        default:
            return fmt.Errorf("trace takes on, off, print or save")
    }
    return nil
}

func doNMI(console *Console, args []string) error {
    console.Printf("nmi: %v\n", console.Emulator.GetNMI())
    return nil
}

func doVBlank(console *Console, args []string) error {
    console.Printf("vblank: %v\n", console.Emulator.GetVBlank())
    return nil
}

func doLoad(console *Console, args []string) error {
    if len(args) == 0 {
        return fmt.Errorf("give a rom to load")
    }
    path := strings.Join(args, " ")
    err := console.Emulator.Load(path)
    if err != nil {
        return err
    }
    info, err := common.RomInfo(path)
    if err != nil {
        return err
    }
    console.Printf("loaded %v: %v, mapper %v\n", path, info, console.Emulator.Cartridge.Mapper)
    return nil
}

func doReset(console *Console, args []string) error {
    console.Emulator.DebugReset()
    console.showLogLine()
    return nil
}

func doPreset(console *Console, args []string) error {
    err := console.Emulator.Preset()
    if err != nil {
        return err
    }
    console.showLogLine()
    return nil
}

func doPeek(console *Console, args []string) error {
    if len(args) == 0 {
        return fmt.Errorf("give an address to peek at")
    }
    address, err := parseAddress(args[0])
    if err != nil {
        return err
    }
    count := 1
    if len(args) > 1 {
        value, err := strconv.Atoi(args[1])
        if err != nil || value < 1 {
            return fmt.Errorf("invalid byte count '%v'", args[1])
        }
        count = value
    }

    for row := 0; row < count; row += 16 {
        var values []string
        for i := row; i < count && i < row + 16; i++ {
            values = append(values, fmt.Sprintf("%02X", console.Emulator.Bus.Peek(address + uint16(i))))
        }
        console.Printf("%04X: %v\n", address + uint16(row), strings.Join(values, " "))
    }
    return nil
}

func doPoke(console *Console, args []string) error {
    if len(args) != 2 {
        return fmt.Errorf("poke takes an address and a value")
    }
    address, err := parseAddress(args[0])
    if err != nil {
        return err
    }
    value, err := parseNumber(args[1], 8)
    if err != nil {
        return fmt.Errorf("invalid value '%v'", args[1])
    }
    console.Emulator.Bus.Write(address, byte(value))
    return nil
}

func doDisassemble(console *Console, args []string) error {
    address := console.Emulator.CPU.PC
    count := 10
    if len(args) > 0 {
        value, err := parseAddress(args[0])
        if err != nil {
            return err
        }
        address = value
    }
    if len(args) > 1 {
        value, err := strconv.Atoi(args[1])
        if err != nil || value < 1 {
            return fmt.Errorf("invalid instruction count '%v'", args[1])
        }
        count = value
    }
    for _, line := range nes.DisassembleRange(console.Emulator.Bus, address, count) {
        console.Printf("%v\n", line)
    }
    return nil
}

func doBreak(console *Console, args []string) error {
    if len(args) == 0 {
        breakpoints := console.Debugger.GetBreakpoints()
        sort.Slice(breakpoints, func(i, j int) bool {
            return breakpoints[i].Id < breakpoints[j].Id
        })
        for _, breakpoint := range breakpoints {
            console.Printf("%v: 0x%04x\n", breakpoint.Id, breakpoint.PC)
        }
        return nil
    }
    address, err := parseAddress(args[0])
    if err != nil {
        return err
    }
    breakpoint := console.Debugger.AddPCBreakpoint(address)
    console.Printf("breakpoint %v at 0x%04x\n", breakpoint.Id, breakpoint.PC)
    return nil
}

func doDelete(console *Console, args []string) error {
    if len(args) != 1 {
        return fmt.Errorf("give a breakpoint id")
    }
    id, err := strconv.ParseUint(args[0], 10, 64)
    if err != nil {
        return fmt.Errorf("invalid breakpoint id '%v'", args[0])
    }
    if !console.Debugger.RemoveBreakpoint(id) {
        return fmt.Errorf("no breakpoint %v", id)
    }
    return nil
}

/* run until a breakpoint, always executing at least one instruction */
func doContinue(console *Console, args []string) error {
    limit := console.Config.GetStepLimit()
    if len(args) > 0 {
        value, err := strconv.Atoi(args[0])
        if err != nil || value < 1 {
            return fmt.Errorf("invalid step limit '%v'", args[0])
        }
        limit = value
    }

    err := console.Emulator.Step(1)
    if err != nil {
        return err
    }
    _, err = console.Emulator.StepUntil(func(emulator *nes.Emulator) bool {
        _, hit := console.Debugger.HitBreakpoint(emulator.CPU)
        return hit
    }, limit)
    if err == nil {
        if breakpoint, ok := console.Debugger.HitBreakpoint(console.Emulator.CPU); ok {
            console.Printf("breakpoint %v\n", breakpoint.Id)
        }
    }
    console.showLogLine()
    return err
}

func doSave(console *Console, args []string) error {
    if len(args) != 1 {
        return fmt.Errorf("give a file to save the registers to")
    }
    file, err := os.Create(args[0])
    if err != nil {
        return err
    }
    defer file.Close()
    return console.Emulator.CPU.Snapshot().Serialize(file)
}

func doRestore(console *Console, args []string) error {
    if len(args) != 1 {
        return fmt.Errorf("give a file to restore the registers from")
    }
    file, err := os.Open(args[0])
    if err != nil {
        return err
    }
    defer file.Close()
    snapshot, err := nes.ReadSnapshot(file)
    if err != nil {
        return err
    }
    console.Emulator.CPU.Restore(snapshot)
    console.showLogLine()
    return nil
}

/* write the register snapshot as a graphviz graph */
func doGraph(console *Console, args []string) error {
    if len(args) != 1 {
        return fmt.Errorf("give a file to write the graph to")
    }
    file, err := os.Create(args[0])
    if err != nil {
        return err
    }
    defer file.Close()
    snapshot := console.Emulator.CPU.Snapshot()
    memviz.Map(file, &snapshot)
    return nil
}

func doScript(console *Console, args []string) error {
    if len(args) == 0 {
        return fmt.Errorf("give a lua script to run")
    }
    return console.RunScript(strings.Join(args, " "))
}

func doQuit(console *Console, args []string) error {
    return ErrQuit
}

func init(){
    commands = []Command{
        {Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "this help text", Run: doHelp},
        {Name: "step", Aliases: []string{"s"}, Usage: "step [n]", Help: "run n instructions", Run: doStep},
        {Name: "until", Usage: "until [limit] <lua expression>", Help: "step until the expression is true, registers are globals", Run: doUntil},
        {Name: "log", Usage: "log", Help: "trace line of the next instruction", Run: doLog},
        {Name: "regs", Aliases: []string{"r"}, Usage: "regs", Help: "show registers, changes highlighted", Run: doRegisters},
        {Name: "flags", Usage: "flags", Help: "show the status flags", Run: doFlags},
        {Name: "trace", Usage: "trace [on [n]|off|print [n]|save <file>]", Help: "control the instruction trace", Run: doTrace},
        {Name: "nmi", Usage: "nmi", Help: "show the ppu nmi line", Run: doNMI},
        {Name: "vblank", Usage: "vblank", Help: "show the ppu vertical blank flag", Run: doVBlank},
        {Name: "load", Usage: "load <file>", Help: "load an ines rom", Run: doLoad},
        {Name: "reset", Usage: "reset", Help: "power cycle the current rom", Run: doReset},
        {Name: "preset", Usage: "preset", Help: "load the preset rom", Run: doPreset},
        {Name: "peek", Usage: "peek <address> [n]", Help: "show memory without side effects", Run: doPeek},
        {Name: "poke", Usage: "poke <address> <value>", Help: "write a byte to the bus", Run: doPoke},
        {Name: "disasm", Aliases: []string{"d"}, Usage: "disasm [address] [n]", Help: "disassemble instructions", Run: doDisassemble},
        {Name: "break", Aliases: []string{"b"}, Usage: "break [address]", Help: "add a breakpoint or list them", Run: doBreak},
        {Name: "delete", Usage: "delete <id>", Help: "remove a breakpoint", Run: doDelete},
        {Name: "continue", Aliases: []string{"c"}, Usage: "continue [limit]", Help: "run until a breakpoint", Run: doContinue},
        {Name: "save", Usage: "save <file>", Help: "save the registers", Run: doSave},
        {Name: "restore", Usage: "restore <file>", Help: "restore saved registers", Run: doRestore},
        {Name: "graph", Usage: "graph <file>", Help: "write the registers as a graphviz graph", Run: doGraph},
        {Name: "script", Usage: "script <file.lua>", Help: "run a lua script", Run: doScript},
        {Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "leave the shell", Run: doQuit},
    }

    commandTable = make(map[string]*Command)
    for i := range commands {
        command := &commands[i]
        commandTable[command.Name] = command
        for _, alias := range command.Aliases {
            commandTable[alias] = command
        }
    }
}
