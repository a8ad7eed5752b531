package main

/* Compare two cpu trace logs, in the Mesen or nestest layout, and show the
 * first lines where the registers or timing disagree.
 */

import (
    "fmt"
    "io"
    "log"
    "os"
    "strconv"

    "github.com/fatih/color"
    "github.com/kazzmir/nes6502/lib/tracelog"
    "github.com/kazzmir/nes6502/util"
)

type Options struct {
    Expected string
    Actual string
    Limit int
    Context int
    NoColor bool
}

/* print the mismatches with a few expected lines before each one, returns how many there were */
func report(expected []tracelog.Entry, actual []tracelog.Entry, options Options, output io.Writer) int {
    red := color.New(color.FgRed).SprintFunc()
    green := color.New(color.FgGreen).SprintFunc()
    faint := color.New(color.Faint).SprintFunc()

    mismatches := tracelog.Diff(expected, actual, options.Limit)
    for _, mismatch := range mismatches {
        fmt.Fprintln(output, util.Failure(mismatch.String()))
        for i := max(0, mismatch.Index - options.Context); i < mismatch.Index && i < len(expected); i++ {
            fmt.Fprintf(output, "  %v\n", faint(expected[i].Text))
        }
        if mismatch.Expected != nil {
            fmt.Fprintf(output, "- %v\n", red(mismatch.Expected.Text))
        }
        if mismatch.Actual != nil {
            fmt.Fprintf(output, "+ %v\n", green(mismatch.Actual.Text))
        }
    }
    return len(mismatches)
}

func run(options Options, output io.Writer) (int, error) {
    expected, err := tracelog.ParseFile(options.Expected)
    if err != nil {
        return 0, err
    }
    actual, err := tracelog.ParseFile(options.Actual)
    if err != nil {
        return 0, err
    }

    count := report(expected, actual, options, output)
    if count == 0 {
        fmt.Fprintln(output, util.Success(fmt.Sprintf("%v lines", len(expected))))
    }
    return count, nil
}

func main(){
    log.SetFlags(log.Lshortfile | log.Lmicroseconds)

    options := Options{
        Limit: 10,
        Context: 3,
    }

    var files []string
    argIndex := 1
    for argIndex < len(os.Args) {
        arg := os.Args[argIndex]
        switch arg {
            case "-limit", "--limit", "-context", "--context":
                argIndex += 1
                if argIndex >= len(os.Args) {
                    log.Fatalf("Expected a number for %v", arg)
                }
                value, err := strconv.Atoi(os.Args[argIndex])
                if err != nil || value < 0 {
                    log.Fatalf("Invalid number '%v' for %v", os.Args[argIndex], arg)
                }
                if arg == "-limit" || arg == "--limit" {
                    options.Limit = value
                } else {
                    options.Context = value
                }
            case "-no-color", "--no-color":
                options.NoColor = true
            default:
                files = append(files, arg)
        }
        argIndex += 1
    }

    if len(files) != 2 {
        fmt.Printf("Usage: tracediff [-limit n] [-context n] [-no-color] expected.log actual.log\n")
        os.Exit(2)
    }
    options.Expected = files[0]
    options.Actual = files[1]

    util.SetupColor(options.NoColor)

    count, err := run(options, os.Stdout)
    if err != nil {
        log.Printf("Error: %v", err)
        os.Exit(2)
    }
    if count > 0 {
        os.Exit(1)
    }
}
