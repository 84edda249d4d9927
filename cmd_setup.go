package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
)

// ShellType identifies the syntax used to persist environment variables
type ShellType int

const (
	ShellBashZsh ShellType = iota
	ShellFish
	ShellPowerShell
	ShellDotEnv
)

// shellProfile is one place the setup wizard can write configuration to
type shellProfile struct {
	name string
	path string
}

// getShellType maps a profile path to the syntax it needs
func getShellType(path string) ShellType {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case base == ".env":
		return ShellDotEnv
	case strings.Contains(base, "fish"):
		return ShellFish
	case strings.HasSuffix(base, ".ps1"):
		return ShellPowerShell
	default:
		return ShellBashZsh
	}
}

// detectShell returns the user's shell name and the candidate profile files
// the configuration can be appended to. The .env option is always offered.
func detectShell() (string, []shellProfile) {
	shell := os.Getenv("SHELL")
	if shell == "" && runtime.GOOS == "windows" {
		shell = "powershell"
	}

	home, _ := os.UserHomeDir()

	var candidates []string
	switch {
	case strings.Contains(shell, "zsh"):
		candidates = []string{".zshrc", ".zprofile"}
	case strings.Contains(shell, "bash"):
		candidates = []string{".bashrc", ".bash_profile", ".profile"}
	case strings.Contains(shell, "fish"):
		candidates = []string{filepath.Join(".config", "fish", "config.fish")}
	}

	var profiles []shellProfile
	for _, c := range candidates {
		path := filepath.Join(home, c)
		if _, err := os.Stat(path); err == nil {
			profiles = append(profiles, shellProfile{name: "~/" + c, path: path})
		}
	}

	profiles = append(profiles, shellProfile{name: ".env file in current directory", path: ".env"})

	return shell, profiles
}

// generateEnvExports renders the configuration block in the syntax the
// target shell understands. Empty values are omitted.
func generateEnvExports(geminiKey, elevenKey, textModel, imageModel string, shell ShellType) string {
	if shell == ShellDotEnv {
		return generateDotEnv(geminiKey, elevenKey, textModel, imageModel)
	}

	var b strings.Builder
	b.WriteString("\n# DoodlePress configuration\n")

	write := func(key, value string) {
		if value == "" {
			return
		}
		switch shell {
		case ShellFish:
			fmt.Fprintf(&b, "set -gx %s %s\n", key, value)
		case ShellPowerShell:
			fmt.Fprintf(&b, "$env:%s = %q\n", key, value)
		default:
			fmt.Fprintf(&b, "export %s=%s\n", key, value)
		}
	}

	write("GEMINI_API_KEY", geminiKey)
	write("ELEVENLABS_API_KEY", elevenKey)
	write("GEMINI_TEXT_MODEL", textModel)
	write("GEMINI_IMAGE_MODEL", imageModel)

	return b.String()
}

// generateDotEnv renders the configuration in .env format for godotenv
func generateDotEnv(geminiKey, elevenKey, textModel, imageModel string) string {
	var b strings.Builder
	b.WriteString("# DoodlePress configuration\n")

	write := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}

	write("GEMINI_API_KEY", geminiKey)
	write("ELEVENLABS_API_KEY", elevenKey)
	write("GEMINI_TEXT_MODEL", textModel)
	write("GEMINI_IMAGE_MODEL", imageModel)

	return b.String()
}

// runSetup walks the user through saving API keys to a shell profile or a
// .env file.
func runSetup() error {
	var geminiKey, elevenKey, textModel, imageModel string

	keysGroup := huh.NewGroup(
		huh.NewInput().
			Title("Gemini API key").
			Description("Required. Get one at https://aistudio.google.com/apikey").
			EchoMode(huh.EchoModePassword).
			Value(&geminiKey),
		huh.NewInput().
			Title("ElevenLabs API key").
			Description("Optional, enables voice dictation. Leave blank to skip.").
			EchoMode(huh.EchoModePassword).
			Value(&elevenKey),
		huh.NewInput().
			Title("Text model override").
			Description("Optional, blank uses the default").
			Placeholder("gemini-2.0-flash").
			Value(&textModel),
		huh.NewInput().
			Title("Image model override").
			Description("Optional, blank uses the default").
			Placeholder("gemini-2.5-flash-image").
			Value(&imageModel),
	)

	if err := huh.NewForm(keysGroup).WithTheme(huh.ThemeCatppuccin()).Run(); err != nil {
		return err
	}

	if strings.TrimSpace(geminiKey) == "" {
		return fmt.Errorf("a Gemini API key is required")
	}

	shell, profiles := detectShell()

	options := make([]huh.Option[string], 0, len(profiles))
	for _, p := range profiles {
		options = append(options, huh.NewOption(p.name, p.path))
	}

	var target string
	selectTarget := huh.NewSelect[string]().
		Title(fmt.Sprintf("Where should the configuration go? (shell: %s)", filepath.Base(shell))).
		Options(options...).
		Value(&target)

	if err := huh.NewForm(huh.NewGroup(selectTarget)).WithTheme(huh.ThemeCatppuccin()).Run(); err != nil {
		return err
	}

	content := generateEnvExports(geminiKey, elevenKey, textModel, imageModel, getShellType(target))

	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", target, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("could not write %s: %w", target, err)
	}

	fmt.Println(successStyle.Render("Configuration saved to " + target))
	if getShellType(target) != ShellDotEnv {
		fmt.Println(infoStyle.Render("Restart your shell or source the profile to pick it up."))
	}
	return nil
}
