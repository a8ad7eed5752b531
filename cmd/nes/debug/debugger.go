package debug

import (
    "context"
    "log"
    "sync"

    nes "github.com/kazzmir/nes6502/lib"
)

type DebugCommand interface {
    Name() string
}

type DebugCommandSimple struct {
    name string
}

func (command *DebugCommandSimple) Name() string {
    return command.name
}

func makeCommand(name string) DebugCommand {
    return &DebugCommandSimple{name: name}
}

var DebugCommandStep DebugCommand = makeCommand("step")
var DebugCommandContinue DebugCommand = makeCommand("continue")
var DebugCommandStop DebugCommand = makeCommand("stop")
var DebugCommandQuit DebugCommand = makeCommand("quit")

// break when the cpu's PC is at a specific value
type Breakpoint struct {
    PC uint16
    Id uint64
    Enabled bool
}

func (breakpoint *Breakpoint) Hit(cpu *nes.CPUState) bool {
    return breakpoint.Enabled && breakpoint.PC == cpu.PC
}

type Debugger interface {
    /* called before every instruction, false means the emulator should quit */
    Handle(quit context.Context, cpu *nes.CPUState) bool
}

type DefaultDebugger struct {
    Commands chan DebugCommand

    lock sync.Mutex
    stopped bool
    breakpoints []Breakpoint
    breakpointId uint64

    /* called on the emulator goroutine when a breakpoint stops execution */
    OnBreak func(Breakpoint)

    Debug uint
}

func (debugger *DefaultDebugger) IsStopped() bool {
    debugger.lock.Lock()
    defer debugger.lock.Unlock()
    return debugger.stopped
}

func (debugger *DefaultDebugger) ContinueUntilBreak(){
    debugger.lock.Lock()
    defer debugger.lock.Unlock()
    debugger.stopped = false
}

func (debugger *DefaultDebugger) Stop(){
    debugger.lock.Lock()
    defer debugger.lock.Unlock()
    debugger.stopped = true
}

func (debugger *DefaultDebugger) AddPCBreakpoint(pc uint16) Breakpoint {
    debugger.lock.Lock()
    defer debugger.lock.Unlock()

    breakpoint := Breakpoint{
        PC: pc,
        Id: debugger.breakpointId,
        Enabled: true,
    }
    debugger.breakpoints = append(debugger.breakpoints, breakpoint)
    debugger.breakpointId += 1
    return breakpoint
}

/* returns false if there was no such breakpoint */
func (debugger *DefaultDebugger) RemoveBreakpoint(id uint64) bool {
    debugger.lock.Lock()
    defer debugger.lock.Unlock()

    var out []Breakpoint
    for _, breakpoint := range debugger.breakpoints {
        if breakpoint.Id != id {
            out = append(out, breakpoint)
        }
    }
    removed := len(out) != len(debugger.breakpoints)
    debugger.breakpoints = out
    return removed
}

func (debugger *DefaultDebugger) GetBreakpoints() []Breakpoint {
    debugger.lock.Lock()
    defer debugger.lock.Unlock()
    return append([]Breakpoint(nil), debugger.breakpoints...)
}

/* the first enabled breakpoint at the cpu's PC */
func (debugger *DefaultDebugger) HitBreakpoint(cpu *nes.CPUState) (Breakpoint, bool) {
    debugger.lock.Lock()
    defer debugger.lock.Unlock()

    for _, breakpoint := range debugger.breakpoints {
        if breakpoint.Hit(cpu) {
            return breakpoint, true
        }
    }
    return Breakpoint{}, false
}

/* Running: stop at a breakpoint, otherwise only look for a stop or quit
 * command without waiting. Stopped: wait for the next command.
 */
func (debugger *DefaultDebugger) Handle(quit context.Context, cpu *nes.CPUState) bool {
    if !debugger.IsStopped() {
        if breakpoint, ok := debugger.HitBreakpoint(cpu); ok {
            if debugger.Debug > 0 {
                log.Printf("[debug] breakpoint %v at 0x%x", breakpoint.Id, breakpoint.PC)
            }
            debugger.Stop()
            if debugger.OnBreak != nil {
                debugger.OnBreak(breakpoint)
            }
        } else {
            select {
                case command := <-debugger.Commands:
                    switch command {
                        case DebugCommandQuit:
                            return false
                        case DebugCommandStop:
                            debugger.Stop()
                        default:
                            return true
                    }
                default:
                    return true
            }
        }
    }

    for {
        select {
            case <-quit.Done():
                return false
            case command := <-debugger.Commands:
                switch command {
                    case DebugCommandStep:
                        if debugger.Debug > 0 {
                            log.Printf("[debug] step")
                        }
                        return true
                    case DebugCommandContinue:
                        if debugger.Debug > 0 {
                            log.Printf("[debug] continue")
                        }
                        /* the instruction under a breakpoint runs before the next check */
                        debugger.ContinueUntilBreak()
                        return true
                    case DebugCommandQuit:
                        return false
                }
        }
    }
}

func MakeDebugger() *DefaultDebugger {
    return &DefaultDebugger{
        Commands: make(chan DebugCommand, 5),
        stopped: true,
        breakpointId: 1,
    }
}
