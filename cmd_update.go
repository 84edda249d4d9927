package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/creativeprojects/go-selfupdate"
)

// updateRepo is the GitHub repository releases are published to
const updateRepo = "doodlepress/doodlepress"

// runSelfUpdate checks GitHub releases and replaces the running binary when a
// newer version is available.
func runSelfUpdate() error {
	if version == "dev" {
		return fmt.Errorf("development builds cannot self-update; install a release build")
	}

	var latest *selfupdate.Release
	var found bool
	var checkErr error

	err := spinner.New().
		Title("Checking for updates...").
		Action(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			latest, found, checkErr = selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
		}).
		Run()
	if err != nil {
		return err
	}
	if checkErr != nil {
		return fmt.Errorf("update check failed: %w", checkErr)
	}
	if !found {
		return fmt.Errorf("no release found for %s", updateRepo)
	}

	if latest.LessOrEqual(version) {
		fmt.Println(successStyle.Render(fmt.Sprintf("doodlepress %s is already the latest version", version)))
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate the running executable: %w", err)
	}

	var updateErr error
	err = spinner.New().
		Title(fmt.Sprintf("Updating to %s...", latest.Version())).
		Action(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			updateErr = selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe)
		}).
		Run()
	if err != nil {
		return err
	}
	if updateErr != nil {
		return fmt.Errorf("update failed: %w", updateErr)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Updated doodlepress %s -> %s", version, latest.Version())))
	if latest.ReleaseNotes != "" {
		fmt.Println(infoStyle.Render(latest.ReleaseNotes))
	}
	return nil
}
