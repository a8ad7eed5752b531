package tracelog

/* Reads cpu trace logs in the Mesen or nestest layout back into register
 * values so two logs can be compared line by line.
 */

import (
    "bufio"
    "fmt"
    "io"
    "os"
    "regexp"
    "strconv"
    "strings"
)

type Entry struct {
    /* 1 based line number in the source */
    Line int
    Text string

    PC uint16
    A byte
    X byte
    Y byte
    S byte
    P byte
    Cycle uint64

    /* false when the line carried no ppu position */
    HasTiming bool
    Scanline int
    Dot int
    Frame uint64
}

var fieldPattern = regexp.MustCompile(`(SP|S|A|X|Y|P|V|H|Fr|Cycle|CYC):\s*([^\s,]+)`)
var ppuPattern = regexp.MustCompile(`PPU:\s*(-?\d+),\s*(\d+)`)

/* NV--DIZC style flags, upper case for set bits */
func parseFlags(text string) (byte, bool) {
    if len(text) != 8 {
        return 0, false
    }
    var out byte
    for i := 0; i < 8; i++ {
        bit := byte(1 << (7 - i))
        switch text[i] {
            case 'N', 'V', 'D', 'I', 'Z', 'C', 'B', 'U':
                out |= bit
            case 'n', 'v', 'd', 'i', 'z', 'c', 'b', 'u', '-':
            default:
                return 0, false
        }
    }
    /* the unused bit always reads back set */
    return out | 0x20, true
}

func parseHex8(text string) (byte, error) {
    value, err := strconv.ParseUint(text, 16, 8)
    return byte(value), err
}

func ParseLine(text string) (Entry, error) {
    entry := Entry{Text: text}

    if len(text) < 4 {
        return entry, fmt.Errorf("line too short")
    }
    pc, err := strconv.ParseUint(text[0:4], 16, 16)
    if err != nil {
        return entry, fmt.Errorf("bad program counter '%v': %w", text[0:4], err)
    }
    entry.PC = uint16(pc)

    start := strings.Index(text, "A:")
    if start == -1 {
        return entry, fmt.Errorf("no registers found")
    }
    registers := text[start:]

    seen := make(map[string]bool)
    for _, match := range fieldPattern.FindAllStringSubmatch(registers, -1) {
        name := match[1]
        value := match[2]
        seen[name] = true

        var err error
        switch name {
            case "A": entry.A, err = parseHex8(value)
            case "X": entry.X, err = parseHex8(value)
            case "Y": entry.Y, err = parseHex8(value)
            case "S", "SP": entry.S, err = parseHex8(value)
            case "P":
                flags, ok := parseFlags(value)
                if ok {
                    entry.P = flags
                } else {
                    entry.P, err = parseHex8(value)
                }
            case "V":
                entry.Scanline, err = strconv.Atoi(value)
                entry.HasTiming = true
            case "H":
                entry.Dot, err = strconv.Atoi(value)
                entry.HasTiming = true
            case "Fr":
                entry.Frame, err = strconv.ParseUint(value, 10, 64)
            case "Cycle", "CYC":
                entry.Cycle, err = strconv.ParseUint(value, 10, 64)
        }
        if err != nil {
            return entry, fmt.Errorf("bad value for %v '%v': %w", name, value, err)
        }
    }

    if ppu := ppuPattern.FindStringSubmatch(registers); ppu != nil {
        entry.Scanline, _ = strconv.Atoi(ppu[1])
        entry.Dot, _ = strconv.Atoi(ppu[2])
        entry.HasTiming = true
    }

    for _, required := range []string{"A", "X", "Y", "P"} {
        if !seen[required] {
            return entry, fmt.Errorf("missing register %v", required)
        }
    }
    if !seen["S"] && !seen["SP"] {
        return entry, fmt.Errorf("missing register S")
    }

    return entry, nil
}

/* parse every non-empty line */
func Parse(reader io.Reader) ([]Entry, error) {
    var out []Entry
    scanner := bufio.NewScanner(reader)
    scanner.Buffer(make([]byte, 0, 1024), 1024 * 1024)
    line := 0
    for scanner.Scan() {
        line += 1
        text := strings.TrimRight(scanner.Text(), " \r")
        if text == "" {
            continue
        }
        entry, err := ParseLine(text)
        if err != nil {
            return nil, fmt.Errorf("line %v: %w", line, err)
        }
        entry.Line = line
        out = append(out, entry)
    }
    if err := scanner.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func ParseFile(path string) ([]Entry, error) {
    file, err := os.Open(path)
    if err != nil {
        return nil, err
    }
    defer file.Close()
    entries, err := Parse(file)
    if err != nil {
        return nil, fmt.Errorf("%v: %w", path, err)
    }
    return entries, nil
}

/* one line where the logs disagree. Index is the position in both logs. */
type Mismatch struct {
    Index int
    Expected *Entry
    Actual *Entry
    Fields []string
}

func (mismatch *Mismatch) String() string {
    switch {
        case mismatch.Expected == nil:
            return fmt.Sprintf("entry %v: unexpected extra line '%v'", mismatch.Index, mismatch.Actual.Text)
        case mismatch.Actual == nil:
            return fmt.Sprintf("entry %v: missing line '%v'", mismatch.Index, mismatch.Expected.Text)
    }
    return fmt.Sprintf("entry %v: %v differ", mismatch.Index, strings.Join(mismatch.Fields, ","))
}

func compareEntries(expected *Entry, actual *Entry) []string {
    var fields []string
    check := func(name string, same bool){
        if !same {
            fields = append(fields, name)
        }
    }
    check("PC", expected.PC == actual.PC)
    check("A", expected.A == actual.A)
    check("X", expected.X == actual.X)
    check("Y", expected.Y == actual.Y)
    check("S", expected.S == actual.S)
    check("P", expected.P == actual.P)
    check("Cycle", expected.Cycle == actual.Cycle)
    if expected.HasTiming && actual.HasTiming {
        check("Scanline", expected.Scanline == actual.Scanline)
        check("Dot", expected.Dot == actual.Dot)
    }
    return fields
}

/* compare two logs entry by entry, returning at most limit mismatches (all when limit <= 0) */
func Diff(expected []Entry, actual []Entry, limit int) []Mismatch {
    var out []Mismatch
    add := func(mismatch Mismatch) bool {
        out = append(out, mismatch)
        return limit > 0 && len(out) >= limit
    }

    length := max(len(expected), len(actual))
    for i := 0; i < length; i++ {
        var mismatch Mismatch
        mismatch.Index = i
        switch {
            case i >= len(expected):
                mismatch.Actual = &actual[i]
            case i >= len(actual):
                mismatch.Expected = &expected[i]
            default:
                fields := compareEntries(&expected[i], &actual[i])
                if len(fields) == 0 {
                    continue
                }
                mismatch.Expected = &expected[i]
                mismatch.Actual = &actual[i]
                mismatch.Fields = fields
        }
        if add(mismatch) {
            break
        }
    }

    return out
}
