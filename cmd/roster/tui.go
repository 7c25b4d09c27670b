package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fentz26/roster/internal/config"
	"github.com/fentz26/roster/internal/gateway"
	"github.com/fentz26/roster/internal/tui"
)

var startBackend bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive scheduling screen",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&startBackend, "start-backend", true, "Start the backend in the background if the http gateway cannot reach it")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if cfg.Gateway.Mode == config.GatewayHTTP && startBackend {
		client := gateway.NewHTTPClient(cfg.Gateway.APIAddr, 500*time.Millisecond)
		if !backendRunning(client) {
			fmt.Println("Roster backend not running. Starting background service...")
			if err := launchBackend(client); err != nil {
				return fmt.Errorf("failed to start backend: %w", err)
			}
		}
	}

	// The screen owns the terminal, so logs go to a file.
	closeLog, err := logToFile()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()

	app := tui.New(st.session)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func logToFile() (func(), error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "roster.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func backendRunning(client *gateway.HTTPClient) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return client.CheckHealth(ctx)
}

func launchBackend(client *gateway.HTTPClient) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	c := exec.Command(exe, args...)
	// Detach so the backend survives the TUI exiting.
	configureBackendProc(c)
	c.Stdin = nil
	c.Stdout = nil
	c.Stderr = nil

	if err := c.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for backend...")
	for i := 0; i < 20; i++ {
		if backendRunning(client) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("backend started but API not reachable at %s", cfg.Gateway.APIAddr)
}
