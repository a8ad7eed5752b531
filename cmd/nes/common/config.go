package common

import (
    "os"
    "log"
    "encoding/json"
    "path/filepath"

    nes "github.com/kazzmir/nes6502/lib"
)

const CurrentVersion = 1

const DefaultStepLimit = 10000000

type ConfigData struct {
    Version int `json:"version,omitempty"`
    /* rom loaded by the preset command, the built in rom when empty */
    PresetPath string `json:"preset-path,omitempty"`
    /* nes or 6502 */
    Variant string `json:"variant,omitempty"`
    TraceCapacity int `json:"trace-capacity,omitempty"`
    /* mesen or nestest */
    TraceFormat string `json:"trace-format,omitempty"`
    /* the most steps until/continue take when no limit is given */
    StepLimit int `json:"step-limit,omitempty"`
}

/* make the directory where the config file lives, which is ~/.config/nes6502 on linux */
func GetOrCreateConfigDir() (string, error) {
    configDir, err := os.UserConfigDir()
    if err != nil {
        return "", err
    }
    configPath := filepath.Join(configDir, "nes6502")
    err = os.MkdirAll(configPath, 0755)
    if err != nil {
        return "", err
    }

    return configPath, nil
}

func DefaultConfigData() ConfigData {
    return ConfigData{
        Version: CurrentVersion,
        Variant: "nes",
        TraceCapacity: nes.DefaultTraceCapacity,
        TraceFormat: nes.TraceMesen.String(),
        StepLimit: DefaultStepLimit,
    }
}

func LoadConfigData() (ConfigData, error) {
    configPath, err := GetOrCreateConfigDir()
    if err != nil {
        return DefaultConfigData(), err
    }
    config := filepath.Join(configPath, "config.json")
    file, err := os.Open(config)
    if err != nil {
        return DefaultConfigData(), err
    }
    defer file.Close()

    data := DefaultConfigData()
    decoder := json.NewDecoder(file)
    err = decoder.Decode(&data)
    if err != nil {
        log.Printf("Could not load config data: %v", err)
        return DefaultConfigData(), err
    }

    if data.Version != CurrentVersion {
        return DefaultConfigData(), nil
    }

    return data, nil
}

/* create the config.json file in the config dir */
func SaveConfigData(data ConfigData) error {
    configPath, err := GetOrCreateConfigDir()
    if err != nil {
        return err
    }
    config := filepath.Join(configPath, "config.json")

    file, err := os.Create(config)
    if err != nil {
        return err
    }
    defer file.Close()

    encoder := json.NewEncoder(file)
    encoder.SetIndent("", "  ")
    return encoder.Encode(data)
}

func (data *ConfigData) GetVariant() (nes.Variant, error) {
    if data.Variant == "" {
        return nes.Ricoh2A03, nil
    }
    return nes.VariantByName(data.Variant)
}

func (data *ConfigData) GetTraceFormat() (nes.TraceFormat, error) {
    if data.TraceFormat == "" {
        return nes.TraceMesen, nil
    }
    return nes.TraceFormatByName(data.TraceFormat)
}

func (data *ConfigData) GetStepLimit() int {
    if data.StepLimit <= 0 {
        return DefaultStepLimit
    }
    return data.StepLimit
}
