package common

import (
    "os"
    "io"
    "fmt"
    "crypto/sha256"
)

func FileExists(path string) bool {
    info, err := os.Stat(path)
    if os.IsNotExist(err) {
        return false
    }

    return err == nil && !info.IsDir()
}

/* size and sha256 of a rom file, shown when a rom is loaded */
func RomInfo(path string) (string, error) {
    file, err := os.Open(path)
    if err != nil {
        return "", err
    }
    defer file.Close()

    hash := sha256.New()
    size, err := io.Copy(hash, file)
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%v bytes sha256 %x", size, hash.Sum(nil)), nil
}
