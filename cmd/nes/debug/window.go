package debug

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "sync"

    "github.com/jroimartin/gocui"
    "github.com/kazzmir/nes6502/cmd/nes/thread"
    nes "github.com/kazzmir/nes6502/lib"
)

/* how many instructions run between screen refreshes while not stopped */
const publishInterval = 20000

const traceLines = 200
const disassemblyLines = 20
const maxMessages = 8

/* what the ui shows, copied off the emulator goroutine */
type machineView struct {
    registers nes.Snapshot
    disassembly []string
    trace []string
    stopped bool
    nmi bool
    vblank bool
}

/* A full screen terminal debugger. The emulator runs on its own goroutine
 * and is only touched there, the ui goroutine gets copies through gui.Update.
 */
type DebugWindow struct {
    gui *gocui.Gui
    emulator *nes.Emulator
    debugger *DefaultDebugger

    lock sync.Mutex
    messages []string
}

func MakeDebugWindow(emulator *nes.Emulator, debugger *DefaultDebugger) *DebugWindow {
    return &DebugWindow{
        emulator: emulator,
        debugger: debugger,
    }
}

func (window *DebugWindow) message(text string){
    window.lock.Lock()
    defer window.lock.Unlock()
    window.messages = append(window.messages, text)
    if len(window.messages) > maxMessages {
        window.messages = window.messages[len(window.messages) - maxMessages:]
    }
}

func (window *DebugWindow) getMessages() []string {
    window.lock.Lock()
    defer window.lock.Unlock()
    return append([]string(nil), window.messages...)
}

func (window *DebugWindow) send(command DebugCommand) string {
    select {
        case window.debugger.Commands <- command:
            return command.Name()
        default:
            return "Error: command dropped. Try again"
    }
}

const windowHelp = `step, s: run one instruction
continue, c: run until a breakpoint
stop: stop running
break <address>: add a breakpoint
delete <id>: remove a breakpoint
quit, q: leave the debugger`

/* run one line typed into the command view, gocui.ErrQuit ends the ui */
func (window *DebugWindow) command(line string) (string, error) {
    args := strings.Fields(line)
    if len(args) == 0 {
        return "", nil
    }

    switch strings.ToLower(args[0]) {
        case "step", "s":
            return window.send(DebugCommandStep), nil
        case "continue", "c":
            return window.send(DebugCommandContinue), nil
        case "stop":
            return window.send(DebugCommandStop), nil
        case "break", "b":
            if len(args) != 2 {
                return "Give an address to break at", nil
            }
            pc, err := strconv.ParseUint(args[1], 0, 16)
            if err != nil {
                return fmt.Sprintf("Invalid address '%v': %v", args[1], err), nil
            }
            breakpoint := window.debugger.AddPCBreakpoint(uint16(pc))
            return fmt.Sprintf("Breakpoint %v added at 0x%04x", breakpoint.Id, breakpoint.PC), nil
        case "delete":
            if len(args) != 2 {
                return "Give a breakpoint id to delete", nil
            }
            id, err := strconv.ParseUint(args[1], 10, 64)
            if err != nil {
                return fmt.Sprintf("Bad breakpoint '%v'", args[1]), nil
            }
            if !window.debugger.RemoveBreakpoint(id) {
                return fmt.Sprintf("No breakpoint %v", id), nil
            }
            return fmt.Sprintf("Removed breakpoint %v", id), nil
        case "help", "?":
            return windowHelp, nil
        case "quit", "q", "exit":
            window.send(DebugCommandQuit)
            return "", gocui.ErrQuit
    }

    return fmt.Sprintf("Unknown command '%v'", args[0]), nil
}

func (window *DebugWindow) snapshot() machineView {
    emulator := window.emulator
    return machineView{
        registers: emulator.CPU.Snapshot(),
        disassembly: nes.DisassembleRange(emulator.Bus, emulator.CPU.PC, disassemblyLines),
        trace: emulator.TraceLines(),
        stopped: window.debugger.IsStopped(),
        nmi: emulator.GetNMI(),
        vblank: emulator.GetVBlank(),
    }
}

/* called on the emulator goroutine */
func (window *DebugWindow) publish(){
    state := window.snapshot()
    window.gui.Update(func(gui *gocui.Gui) error {
        return window.draw(gui, state)
    })
}

func (window *DebugWindow) runEmulator(quit context.Context){
    window.publish()
    steps := 0
    for window.debugger.Handle(quit, window.emulator.CPU) {
        err := window.emulator.Step(1)
        if err != nil {
            window.message(fmt.Sprintf("Error: %v", err))
            window.debugger.Stop()
        }
        steps += 1
        if window.debugger.IsStopped() || steps % publishInterval == 0 {
            window.publish()
        }
    }

    window.gui.Update(func(*gocui.Gui) error {
        return gocui.ErrQuit
    })
}

func (window *DebugWindow) draw(gui *gocui.Gui, state machineView) error {
    registers, err := gui.View("registers")
    if err != nil {
        return nil
    }
    registers.Clear()
    cpu := state.registers
    fmt.Fprintf(registers, "PC: %04X\n", cpu.PC)
    fmt.Fprintf(registers, "A:%02X X:%02X Y:%02X S:%02X\n", cpu.A, cpu.X, cpu.Y, cpu.SP)
    fmt.Fprintf(registers, "P: %02X %v\n", cpu.Status, nes.FlagString(cpu.Status))
    fmt.Fprintf(registers, "Cycle: %v\n", cpu.Cycle)
    fmt.Fprintf(registers, "NMI: %v VBlank: %v\n", state.nmi, state.vblank)
    if state.stopped {
        fmt.Fprintf(registers, "stopped\n")
    } else {
        fmt.Fprintf(registers, "running\n")
    }

    disassembly, err := gui.View("disassembly")
    if err == nil {
        disassembly.Clear()
        for _, line := range state.disassembly {
            fmt.Fprintln(disassembly, line)
        }
    }

    trace, err := gui.View("trace")
    if err == nil {
        trace.Clear()
        for _, line := range state.trace {
            fmt.Fprintln(trace, line)
        }
    }

    return window.drawStatus(gui)
}

func (window *DebugWindow) drawStatus(gui *gocui.Gui) error {
    status, err := gui.View("status")
    if err != nil {
        return nil
    }
    status.Clear()
    for _, breakpoint := range window.debugger.GetBreakpoints() {
        fmt.Fprintf(status, "break %v: 0x%04x\n", breakpoint.Id, breakpoint.PC)
    }
    for _, message := range window.getMessages() {
        fmt.Fprintln(status, message)
    }
    return nil
}

func (window *DebugWindow) layout(gui *gocui.Gui) error {
    width, height := gui.Size()
    split := width / 3
    middle := height / 2

    if view, err := gui.SetView("registers", 0, 0, split - 1, 7); err != nil {
        if err != gocui.ErrUnknownView {
            return err
        }
        view.Title = "Registers"
    }

    if view, err := gui.SetView("status", 0, 8, split - 1, middle - 1); err != nil {
        if err != gocui.ErrUnknownView {
            return err
        }
        view.Title = "Breakpoints"
        view.Wrap = true
    }

    if view, err := gui.SetView("disassembly", split, 0, width - 1, middle - 1); err != nil {
        if err != gocui.ErrUnknownView {
            return err
        }
        view.Title = "Disassembly"
    }

    if view, err := gui.SetView("trace", 0, middle, width - 1, height - 4); err != nil {
        if err != gocui.ErrUnknownView {
            return err
        }
        view.Title = "Trace"
        view.Autoscroll = true
    }

    if view, err := gui.SetView("command", 0, height - 3, width - 1, height - 1); err != nil {
        if err != gocui.ErrUnknownView {
            return err
        }
        view.Title = "Command (F10 step, F5 continue, ctrl-c quit)"
        view.Editable = true
        _, err = gui.SetCurrentView("command")
        if err != nil {
            return err
        }
    }

    return nil
}

func (window *DebugWindow) execute(gui *gocui.Gui, view *gocui.View) error {
    line := strings.TrimSpace(view.Buffer())
    view.Clear()
    view.SetCursor(0, 0)
    view.SetOrigin(0, 0)

    text, err := window.command(line)
    if err != nil {
        return err
    }
    for _, part := range strings.Split(text, "\n") {
        if part != "" {
            window.message(part)
        }
    }
    return window.drawStatus(gui)
}

func (window *DebugWindow) bindings(gui *gocui.Gui) error {
    quit := func(gui *gocui.Gui, view *gocui.View) error {
        window.send(DebugCommandQuit)
        return gocui.ErrQuit
    }
    step := func(gui *gocui.Gui, view *gocui.View) error {
        window.send(DebugCommandStep)
        return nil
    }
    resume := func(gui *gocui.Gui, view *gocui.View) error {
        window.send(DebugCommandContinue)
        return nil
    }

    err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit)
    if err != nil {
        return err
    }
    err = gui.SetKeybinding("", gocui.KeyF10, gocui.ModNone, step)
    if err != nil {
        return err
    }
    err = gui.SetKeybinding("", gocui.KeyF5, gocui.ModNone, resume)
    if err != nil {
        return err
    }
    return gui.SetKeybinding("command", gocui.KeyEnter, gocui.ModNone, window.execute)
}

/* take over the terminal until the user quits */
func (window *DebugWindow) Run(parent context.Context) error {
    gui, err := gocui.NewGui(gocui.OutputNormal)
    if err != nil {
        return fmt.Errorf("could not start the terminal ui: %w", err)
    }
    defer gui.Close()

    window.gui = gui
    gui.Cursor = true
    gui.SetManagerFunc(window.layout)
    err = window.bindings(gui)
    if err != nil {
        return err
    }

    window.emulator.EnableTrace(traceLines)
    window.debugger.OnBreak = func(breakpoint Breakpoint){
        window.message(fmt.Sprintf("Hit breakpoint %v at 0x%04x", breakpoint.Id, breakpoint.PC))
        window.publish()
    }

    group := thread.NewThreadGroup(parent)
    group.SpawnWithCancel(func(quit context.Context, cancel context.CancelFunc){
        defer cancel()
        window.runEmulator(quit)
    })

    err = gui.MainLoop()
    group.Cancel()
    group.Wait()

    if errors.Is(err, gocui.ErrQuit) {
        return nil
    }
    return err
}
