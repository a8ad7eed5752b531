package util

import (
    "fmt"
    "os"
    "strings"

    "github.com/fatih/color"
)

func Failure(message string) string {
    red := color.New(color.FgRed).SprintFunc()
    return fmt.Sprintf("%v %v", message, red("failed"))
}

func Success(message string) string {
    green := color.New(color.FgGreen).SprintFunc()
    return fmt.Sprintf("%v %v", message, green("passed"))
}

func Skipped(message string) string {
    yellow := color.New(color.FgYellow).SprintFunc()
    return fmt.Sprintf("%v %v", message, yellow("skipped"))
}

/* pass/fail/skip counts on one line, only the non-zero parts colored */
func Summary(name string, pass int, fail int, skip int) string {
    var parts []string
    green := color.New(color.FgGreen).SprintFunc()
    red := color.New(color.FgRed).SprintFunc()
    yellow := color.New(color.FgYellow).SprintFunc()

    part := func(count int, label string, paint func(...any) string){
        text := fmt.Sprintf("%v %v", count, label)
        if count > 0 {
            text = paint(text)
        }
        parts = append(parts, text)
    }

    part(pass, "passed", green)
    part(fail, "failed", red)
    part(skip, "skipped", yellow)
    return fmt.Sprintf("%v: %v", name, strings.Join(parts, ", "))
}

/* Highlight colors the text when the condition holds, for marking a
 * changed value next to unchanged ones.
 */
func Highlight(text string, condition bool) string {
    if !condition {
        return text
    }
    return color.New(color.FgCyan, color.Bold).Sprint(text)
}

/* turn colors off when the output is not a terminal or NO_COLOR is set */
func SetupColor(noColor bool){
    if noColor || os.Getenv("NO_COLOR") != "" {
        color.NoColor = true
    }
}
