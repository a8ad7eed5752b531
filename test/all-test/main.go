package main

import (
    "log"
    "os"
    "path/filepath"

    "github.com/kazzmir/nes6502/test/all-test/branch"
    "github.com/kazzmir/nes6502/test/all-test/nestest"
    "github.com/kazzmir/nes6502/util"
)

func main(){
    log.SetFlags(log.Lshortfile | log.Lmicroseconds)

    directory := "test-roms"
    debug := false

    argIndex := 1
    for argIndex < len(os.Args) {
        arg := os.Args[argIndex]
        switch arg {
            case "-debug", "--debug":
                debug = true
            default:
                directory = arg
        }
        argIndex += 1
    }

    allPassed := true

    ok, err := nestest.Run(filepath.Join(directory, "nestest.nes"), filepath.Join(directory, "nestest.log"), debug)
    if err != nil {
        log.Printf("Error: nestest failed with an error: %v", err)
        allPassed = false
    } else {
        if ok {
            log.Print(util.Success("nestest"))
        } else {
            log.Print(util.Failure("nestest"))
        }
        allPassed = allPassed && ok
    }

    ok, err = branch.Run(directory, debug)
    if err != nil {
        log.Printf("branch failed with an error: %v", err)
        allPassed = false
    }
    if !ok {
        log.Printf("branch tests failed")
        allPassed = false
    }

    if !allPassed {
        os.Exit(1)
    }
}
