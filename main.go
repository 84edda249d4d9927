package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"doodlepress/gemini"
	"doodlepress/speech"
	"doodlepress/tui"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

// Build info - set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38BDF8")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8"))

	doodleLogo = `
    ╭─────────────────────────────────────────╮
    │  🖍  DoodlePress - Coloring Book Maker  │
    ╰─────────────────────────────────────────╯`
)

func main() {
	// Parse flags
	versionFlag := flag.Bool("version", false, "Print version information")
	shortVersionFlag := flag.Bool("v", false, "Print version information (short)")
	updateFlag := flag.Bool("update", false, "Update to the latest release")
	setupFlag := flag.Bool("setup", false, "Save API keys to your shell profile or a .env file")
	flag.Parse()

	if *versionFlag || *shortVersionFlag {
		fmt.Printf("doodlepress %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  go:     %s\n", runtime.Version())
		fmt.Printf("  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if *updateFlag {
		if err := runSelfUpdate(); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *setupFlag {
		if err := runSetup(); err != nil {
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env file if it exists (won't error if missing)
	_ = godotenv.Load()

	// Print header
	fmt.Println(titleStyle.Render(doodleLogo))

	// Check for Gemini config
	if err := gemini.CheckConfig(); err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		fmt.Println(infoStyle.Render(gemini.GetAPIKeyHelp()))
		fmt.Println(infoStyle.Render("Run 'doodlepress -setup' to save your keys."))
		os.Exit(1)
	}

	if !speech.Available() {
		fmt.Println(infoStyle.Render("Dictation is off (no microphone support in this build); you can still type."))
	}

	// Main loop
	for {
		if !runMainMenu() {
			break
		}
	}

	fmt.Println(subtitleStyle.Render("\n🖍  Thanks for coloring with DoodlePress! Bye bye!"))
}

// runMainMenu shows the top-level menu. Returns false when the user exits.
func runMainMenu() bool {
	var choice string
	selectAction := huh.NewSelect[string]().
		Title("What would you like to do?").
		Options(
			huh.NewOption("Make coloring pages", "create"),
			huh.NewOption("Exit", "exit"),
		).
		Value(&choice)

	err := huh.NewForm(huh.NewGroup(selectAction)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()

	if err != nil {
		if err == huh.ErrUserAborted {
			return false
		}
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return false
	}

	if choice != "create" {
		return false
	}

	backToMenu, err := tui.RunUI()
	if err != nil {
		fmt.Println(errorStyle.Render("Error: " + err.Error()))
		return askToContinue()
	}
	if backToMenu {
		return true
	}
	return askToContinue()
}

func askToContinue() bool {
	var choice string
	selectNext := huh.NewSelect[string]().
		Title("What next?").
		Options(
			huh.NewOption("Make more coloring pages", "another"),
			huh.NewOption("Exit", "exit"),
		).
		Value(&choice)

	err := huh.NewForm(huh.NewGroup(selectNext)).
		WithTheme(huh.ThemeCatppuccin()).
		Run()

	if err != nil {
		return false
	}

	return choice == "another"
}
