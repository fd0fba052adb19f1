// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package launcher opens URLs in the user's default browser using the
// platform's opener command.
package launcher

import (
	"fmt"
	"os/exec"
	"runtime"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Start(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Start launches the command without waiting for it. The opener hands
// the URL to the browser and exits on its own.
func (o *osExecutor) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

var defaultExec executor = &osExecutor{}

// Open opens url in the default browser.
func Open(url string) error {
	return open(defaultExec, runtime.GOOS, url)
}

func open(exec executor, goos, url string) error {
	name, args := opener(goos, url)
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("no browser opener: %s not found: %w", name, err)
	}
	if err := exec.Start(name, args...); err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}

// opener returns the command that opens url on goos.
func opener(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
