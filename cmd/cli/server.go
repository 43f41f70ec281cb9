package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "vidgrab-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// probe reports whether GET path on the server answers 200
func probe(path string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary looks next to the CLI, then in PATH, then in common install dirs
func findServerBinary() (string, error) {
	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), serverBinary))
	}
	if p, err := exec.LookPath(serverBinary); err == nil {
		candidates = append(candidates, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", serverBinary),
			filepath.Join(home, ".local", "bin", serverBinary))
	}
	candidates = append(candidates,
		filepath.Join("/usr/local/bin", serverBinary),
		filepath.Join("/usr/bin", serverBinary))

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	var args []string
	if serverConfig != "" {
		args = append(args, "-config", serverConfig)
	}
	cmd := exec.Command(serverPath, args...)

	// stdio stays nil so the child gets the null device
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// reap the child if it exits while we are still running
	go cmd.Wait()

	return nil
}

// waitForServerReady polls /ready until the reaper is up or the timeout passes
func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if probe("/ready") {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not become ready within %v", serverStartTimeout)
}

// ensureServerRunning starts a local server if none answers on serverURL
func ensureServerRunning() error {
	if probe("/health") {
		return nil
	}

	fmt.Println("Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}
	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Println("Server started successfully")
	return nil
}
