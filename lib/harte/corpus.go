package harte

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strconv"
    "strings"
    "sync"

    "golang.org/x/sync/errgroup"
)

var ErrEmptyCorpus = errors.New("no vector files found")

/* read a file of vectors, gzipped when the name ends in .gz */
func LoadFile(path string) ([]Vector, error) {
    file, err := os.Open(path)
    if err != nil {
        return nil, err
    }
    defer file.Close()

    var reader io.Reader = file
    if strings.HasSuffix(path, ".gz") {
        compressed, err := gzip.NewReader(file)
        if err != nil {
            return nil, fmt.Errorf("%v: %w", path, err)
        }
        defer compressed.Close()
        reader = compressed
    }

    return Load(reader)
}

func Load(reader io.Reader) ([]Vector, error) {
    var vectors []Vector
    err := json.NewDecoder(reader).Decode(&vectors)
    if err != nil {
        return nil, fmt.Errorf("could not decode vectors: %w", err)
    }
    return vectors, nil
}

func isVectorFile(path string) bool {
    return strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".json.gz")
}

/* the opcode a corpus file is named after, such as a9.json */
func OpcodeFromPath(path string) (byte, bool) {
    base := filepath.Base(path)
    base = strings.TrimSuffix(base, ".gz")
    base = strings.TrimSuffix(base, ".json")
    value, err := strconv.ParseUint(base, 16, 8)
    if err != nil {
        return 0, false
    }
    return byte(value), true
}

/* every vector file below root, sorted by name. When only is not empty the
 * files are limited to those opcodes.
 */
func FindFiles(root string, only []byte) ([]string, error) {
    wanted := make(map[byte]bool)
    for _, opcode := range only {
        wanted[opcode] = true
    }

    var out []string
    err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
        if err != nil {
            return err
        }
        if entry.IsDir() || !isVectorFile(path) {
            return nil
        }
        if len(wanted) > 0 {
            opcode, ok := OpcodeFromPath(path)
            if !ok || !wanted[opcode] {
                return nil
            }
        }
        out = append(out, path)
        return nil
    })
    if err != nil {
        return nil, err
    }

    sort.Strings(out)
    return out, nil
}

/* how many failures to keep per opcode */
const MaxFailures = 5

type Tally struct {
    Pass int
    Mismatch int
    Unsupported int
    /* the first few mismatches */
    Failures []Result
}

func (tally *Tally) Total() int {
    return tally.Pass + tally.Mismatch + tally.Unsupported
}

func (tally *Tally) add(result Result){
    switch result.Status {
        case Pass: tally.Pass += 1
        case Unsupported: tally.Unsupported += 1
        case Mismatch:
            tally.Mismatch += 1
            if len(tally.Failures) < MaxFailures {
                tally.Failures = append(tally.Failures, result)
            }
    }
}

type Report struct {
    Files int
    Opcodes map[byte]*Tally

    lock sync.Mutex
}

func NewReport() *Report {
    return &Report{
        Opcodes: make(map[byte]*Tally),
    }
}

func (report *Report) Add(result Result){
    report.lock.Lock()
    defer report.lock.Unlock()

    tally, ok := report.Opcodes[result.Opcode]
    if !ok {
        tally = &Tally{}
        report.Opcodes[result.Opcode] = tally
    }
    tally.add(result)
}

/* sums over every opcode */
func (report *Report) Total() Tally {
    report.lock.Lock()
    defer report.lock.Unlock()

    var total Tally
    for _, tally := range report.Opcodes {
        total.Pass += tally.Pass
        total.Mismatch += tally.Mismatch
        total.Unsupported += tally.Unsupported
    }
    return total
}

/* opcodes in the report, lowest first */
func (report *Report) Sorted() []byte {
    report.lock.Lock()
    defer report.lock.Unlock()

    var out []byte
    for opcode := range report.Opcodes {
        out = append(out, opcode)
    }
    sort.Slice(out, func(i, j int) bool {
        return out[i] < out[j]
    })
    return out
}

func RunVectors(vectors []Vector, options Options, report *Report){
    for i := range vectors {
        report.Add(Run(&vectors[i], options))
    }
}

/* Run every file with at most jobs files in flight. Each goroutine builds its
 * own cpu and bus for every vector. Stops at the first file that can't be read.
 */
func RunCorpus(ctx context.Context, paths []string, options Options, jobs int) (*Report, error) {
    if len(paths) == 0 {
        return nil, ErrEmptyCorpus
    }
    if jobs < 1 {
        jobs = 1
    }

    report := NewReport()
    group, ctx := errgroup.WithContext(ctx)
    group.SetLimit(jobs)

    for _, path := range paths {
        group.Go(func() error {
            if ctx.Err() != nil {
                return ctx.Err()
            }
            vectors, err := LoadFile(path)
            if err != nil {
                return err
            }
            RunVectors(vectors, options, report)
            return nil
        })
    }

    err := group.Wait()
    if err != nil {
        return report, err
    }
    report.Files = len(paths)
    return report, nil
}
