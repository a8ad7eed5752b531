package common

import (
    "os"
    "path/filepath"
    "testing"

    nes "github.com/kazzmir/nes6502/lib"
)

func TestConfigRoundTrip(test *testing.T){
    test.Setenv("XDG_CONFIG_HOME", test.TempDir())
    test.Setenv("HOME", test.TempDir())

    _, err := LoadConfigData()
    if err == nil {
        test.Fatalf("loading a config that doesn't exist should fail")
    }

    data := DefaultConfigData()
    data.Variant = "6502"
    data.TraceFormat = "nestest"
    data.TraceCapacity = 50
    data.PresetPath = "/roms/preset.nes"

    err = SaveConfigData(data)
    if err != nil {
        test.Fatalf("could not save config: %v", err)
    }

    loaded, err := LoadConfigData()
    if err != nil {
        test.Fatalf("could not load config: %v", err)
    }
    if loaded != data {
        test.Fatalf("loaded %+v but saved %+v", loaded, data)
    }

    variant, err := loaded.GetVariant()
    if err != nil || variant != nes.MOS6502 {
        test.Fatalf("expected the 6502 variant: %v %v", variant, err)
    }
    format, err := loaded.GetTraceFormat()
    if err != nil || format != nes.TraceNestest {
        test.Fatalf("expected the nestest layout: %v %v", format, err)
    }
}

func TestConfigOldVersion(test *testing.T){
    test.Setenv("XDG_CONFIG_HOME", test.TempDir())
    test.Setenv("HOME", test.TempDir())

    directory, err := GetOrCreateConfigDir()
    if err != nil {
        test.Fatalf("no config dir: %v", err)
    }
    err = os.WriteFile(filepath.Join(directory, "config.json"), []byte(`{"version": 99, "variant": "6502"}`), 0644)
    if err != nil {
        test.Fatalf("could not write config: %v", err)
    }

    loaded, err := LoadConfigData()
    if err != nil {
        test.Fatalf("could not load config: %v", err)
    }
    if loaded != DefaultConfigData() {
        test.Fatalf("an unknown version should give the defaults")
    }
    if loaded.GetStepLimit() != DefaultStepLimit {
        test.Fatalf("unexpected step limit %v", loaded.GetStepLimit())
    }
}

func TestRomInfo(test *testing.T){
    path := filepath.Join(test.TempDir(), "rom.nes")
    os.WriteFile(path, []byte("abc"), 0644)

    info, err := RomInfo(path)
    if err != nil {
        test.Fatalf("could not hash: %v", err)
    }
    if info != "3 bytes sha256 ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
        test.Fatalf("unexpected info '%v'", info)
    }
    if !FileExists(path) || FileExists(filepath.Dir(path)) {
        test.Fatalf("FileExists is wrong")
    }
}
