package main

import (
    "context"
    "fmt"
    "io"
    "log"
    "os"
    "runtime"
    "strconv"
    "strings"
    "time"

    "github.com/go-echarts/statsview"
    "github.com/go-echarts/statsview/viewer"
    nes "github.com/kazzmir/nes6502/lib"
    "github.com/kazzmir/nes6502/lib/harte"
    "github.com/kazzmir/nes6502/util"
)

const statsAddress = "localhost:12600"

type Options struct {
    Root string
    Variant string
    DecimalCorpus bool
    Only []byte
    Jobs int
    Stats bool
    Verbose bool
    NoColor bool
}

/* a comma separated list of hex opcodes, like a9,8d */
func parseOpcodes(text string) ([]byte, error) {
    var out []byte
    for _, part := range strings.Split(text, ",") {
        part = strings.TrimSpace(part)
        if part == "" {
            continue
        }
        value, err := strconv.ParseUint(strings.TrimPrefix(part, "0x"), 16, 8)
        if err != nil {
            return nil, fmt.Errorf("invalid opcode '%v'", part)
        }
        out = append(out, byte(value))
    }
    return out, nil
}

/* write one line per opcode and the failures, true when nothing mismatched */
func summarize(report *harte.Report, verbose bool, output io.Writer) bool {
    for _, opcode := range report.Sorted() {
        tally := report.Opcodes[opcode]
        instruction := nes.Decode(opcode)
        name := fmt.Sprintf("%02x %v", opcode, instruction.Name)
        if tally.Mismatch > 0 || verbose {
            fmt.Fprintln(output, util.Summary(name, tally.Pass, tally.Mismatch, tally.Unsupported))
        }
        for _, failure := range tally.Failures {
            fmt.Fprintf(output, "  %v\n", failure.String())
        }
    }

    total := report.Total()
    fmt.Fprintln(output, util.Summary(fmt.Sprintf("%v files, %v opcodes", report.Files, len(report.Opcodes)), total.Pass, total.Mismatch, total.Unsupported))
    return total.Mismatch == 0
}

func run(options Options) (bool, error) {
    variant, err := nes.VariantByName(options.Variant)
    if err != nil {
        return false, err
    }

    paths, err := harte.FindFiles(options.Root, options.Only)
    if err != nil {
        return false, err
    }

    if options.Stats {
        go func(){
            viewer.SetConfiguration(viewer.WithAddr(statsAddress))
            statsview.New().Start()
        }()
        log.Printf("Stats at http://%v/debug/statsview", statsAddress)
    }

    start := time.Now()
    report, err := harte.RunCorpus(context.Background(), paths, harte.Options{
        Variant: variant,
        DecimalCorpus: options.DecimalCorpus,
    }, options.Jobs)
    if err != nil {
        return false, err
    }

    ok := summarize(report, options.Verbose, os.Stdout)
    total := report.Total()
    log.Printf("Ran %v vectors in %v", total.Total(), time.Since(start))
    return ok, nil
}

func main(){
    log.SetFlags(log.Lshortfile | log.Lmicroseconds)

    options := Options{
        Variant: "nes",
        Jobs: runtime.NumCPU(),
    }

    argIndex := 1
    for argIndex < len(os.Args) {
        arg := os.Args[argIndex]
        switch arg {
            case "-variant", "--variant":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected nes or 6502 for -variant")
                }
                options.Variant = os.Args[argIndex]
            case "-decimal-corpus", "--decimal-corpus":
                options.DecimalCorpus = true
            case "-only", "--only":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected a list of opcodes for -only")
                }
                only, err := parseOpcodes(os.Args[argIndex])
                if err != nil {
                    log.Fatalf("Error: %v", err)
                }
                options.Only = only
            case "-jobs", "--jobs":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected a number for -jobs")
                }
                jobs, err := strconv.Atoi(os.Args[argIndex])
                if err != nil || jobs < 1 {
                    log.Fatalf("Invalid job count '%v'", os.Args[argIndex])
                }
                options.Jobs = jobs
            case "-stats", "--stats":
                options.Stats = true
            case "-verbose", "--verbose", "-v":
                options.Verbose = true
            case "-no-color", "--no-color":
                options.NoColor = true
            default:
                options.Root = arg
        }
        argIndex += 1
    }

    if options.Root == "" {
        fmt.Printf("Give a directory of vector files, such as SingleStepTests/nes6502/v1\n")
        os.Exit(2)
    }

    util.SetupColor(options.NoColor)

    ok, err := run(options)
    if err != nil {
        log.Printf("Error: %v", err)
        os.Exit(2)
    }
    if !ok {
        os.Exit(1)
    }
}
