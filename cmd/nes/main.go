package main

import (
    "context"
    "errors"
    "fmt"
    "io/fs"
    "log"
    "os"

    "github.com/kazzmir/nes6502/cmd/nes/common"
    "github.com/kazzmir/nes6502/cmd/nes/debug"
    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/util"
    "golang.org/x/term"
)

type Options struct {
    RomPath string
    ScriptPath string
    DebugWindow bool
    Variant string
    TraceFormat string
    NoColor bool
}

func makeEmulator(config common.ConfigData, options Options) (*nes.Emulator, error) {
    variant, err := config.GetVariant()
    if err != nil {
        return nil, err
    }
    format, err := config.GetTraceFormat()
    if err != nil {
        return nil, err
    }

    emulator := nes.NewEmulator(variant)
    emulator.PresetPath = config.PresetPath
    emulator.CPU.Tracer.Format = format

    if options.RomPath != "" {
        err = emulator.Load(options.RomPath)
    } else {
        err = emulator.Preset()
    }
    if err != nil {
        return nil, err
    }
    return emulator, nil
}

func Run(config common.ConfigData, options Options) error {
    emulator, err := makeEmulator(config, options)
    if err != nil {
        return err
    }

    if options.DebugWindow {
        window := debug.MakeDebugWindow(emulator, debug.MakeDebugger())
        return window.Run(context.Background())
    }

    console := MakeConsole(emulator, config, os.Stdout)
    defer console.Close()

    if options.ScriptPath != "" {
        return console.RunScript(options.ScriptPath)
    }

    fmt.Printf("%v cpu, type help for commands\n", emulator.CPU.Variant.Name)
    console.showLogLine()
    return console.Interactive()
}

func main(){
    log.SetFlags(log.Lshortfile | log.Lmicroseconds)

    var options Options

    argIndex := 1
    for argIndex < len(os.Args) {
        arg := os.Args[argIndex]
        switch arg {
            case "-debug", "--debug":
                options.DebugWindow = true
            case "-no-color", "--no-color":
                options.NoColor = true
            case "-variant", "--variant":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected nes or 6502 for -variant")
                }
                options.Variant = os.Args[argIndex]
            case "-trace", "--trace":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected mesen or nestest for -trace")
                }
                options.TraceFormat = os.Args[argIndex]
            case "-script", "--script":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected a lua file for -script")
                }
                options.ScriptPath = os.Args[argIndex]
            default:
                options.RomPath = arg
        }

        argIndex += 1
    }

    config, err := common.LoadConfigData()
    if err != nil && !errors.Is(err, fs.ErrNotExist) {
        log.Printf("Using the default config: %v", err)
    }
    if options.Variant != "" {
        config.Variant = options.Variant
    }
    if options.TraceFormat != "" {
        config.TraceFormat = options.TraceFormat
    }

    util.SetupColor(options.NoColor || !term.IsTerminal(int(os.Stdout.Fd())))

    err = Run(config, options)
    if err != nil {
        log.Printf("Error: %v", err)
        os.Exit(1)
    }
}
