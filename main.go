package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/valyala/fasttemplate"

	"github.com/spance/android-operator/operator/adb"
	"github.com/spance/android-operator/operator/dispatch"
	"github.com/spance/android-operator/operator/session"
)

const (
	serverName    = "android-operator"
	serverVersion = "1.0.0"
)

// Config holds all the configuration values from command line arguments
type Config struct {
	Transport string `json:"transport"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	DeviceID  string `json:"device_id"`
	AdbPath   string `json:"adb_path"`
	Debug     bool   `json:"debug"`
}

var config = &Config{}

var rootCmd = &cobra.Command{
	Use:   "android-operator",
	Short: "Android Operator - MCP server for Android device automation",
	Long: `Android Operator exposes Android device automation as MCP tools.
It drives a device over ADB: app lifecycle, screen control, input
gestures, UI inspection, and element waiting.`,
	Example: `  # Serve over stdio (default)
  android-operator

  # Serve over HTTP
  android-operator --transport http --port 8080

  # Pin a specific device
  android-operator --device-id emulator-5554`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&config.Transport, "transport", "t",
		getEnv("ANDROID_OPERATOR_TRANSPORT", "stdio"),
		"Transport: stdio or http")

	rootCmd.PersistentFlags().StringVar(&config.Host, "host",
		getEnv("ANDROID_OPERATOR_HOST", "127.0.0.1"),
		"Bind address for the http transport")

	rootCmd.PersistentFlags().IntVarP(&config.Port, "port", "p",
		getEnvInt("ANDROID_OPERATOR_PORT", 8080),
		"Port for the http transport")

	rootCmd.PersistentFlags().StringVarP(&config.DeviceID, "device-id", "d",
		getEnv("ANDROID_OPERATOR_DEVICE_ID", ""),
		"ADB device serial (auto-detected when empty)")

	rootCmd.PersistentFlags().StringVar(&config.AdbPath, "adb-path",
		getEnv("ANDROID_OPERATOR_ADB_PATH", "adb"),
		"Path to the adb binary")

	rootCmd.PersistentFlags().BoolVar(&config.Debug, "debug", false,
		"Enable debug logging")
}

func main() {
	rootCmd.PersistentPreRunE = validateFlags
	cobra.CheckErr(rootCmd.Execute())
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if config.Transport != "stdio" && config.Transport != "http" {
		return fmt.Errorf("invalid transport: %s. Must be 'stdio' or 'http'", config.Transport)
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	return nil
}

const instructionsTemplate = `{{ name }} drives a single Android device over ADB.

Start with check_adb to verify the toolchain, then connect_device to
attach. All other tools reuse the attached device and reconnect
transparently if it drops. Tools that locate UI elements accept a
selector plus selector_type (text, resourceId, or description).`

func serve() error {
	// Configure zerolog. The stdio transport owns stdout, so logs go to stderr.
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := checkAdbAvailable(); err != nil {
		return err
	}

	driver := adb.NewDriver(config.AdbPath)
	sessions := session.NewManager(driver, config.DeviceID)
	defer sessions.Close(context.Background())

	dispatcher := dispatch.NewDispatcher(sessions, driver, config.AdbPath)

	instructions := fasttemplate.ExecuteString(instructionsTemplate, "{{ ", " }}",
		map[string]any{"name": serverName})

	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithInstructions(instructions),
	)
	dispatch.Register(srv, dispatcher)

	switch config.Transport {
	case "http":
		addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
		log.Info().Str("addr", addr).Msg("serving MCP over http")
		return server.NewStreamableHTTPServer(srv).Start(addr)
	default:
		log.Info().Msg("serving MCP over stdio")
		return server.ServeStdio(srv)
	}
}

// checkAdbAvailable verifies the adb binary before accepting any tool call.
// Device presence is not required at startup; connect_device handles that.
func checkAdbAvailable() error {
	resolved, err := exec.LookPath(config.AdbPath)
	if err != nil {
		log.Error().Str("adb", config.AdbPath).Msg("adb is not installed or not in PATH")
		log.Info().Msg("Install platform-tools:")
		log.Info().Msg("  - macOS: brew install android-platform-tools")
		log.Info().Msg("  - Linux: sudo apt install android-tools-adb")
		return fmt.Errorf("adb not found: %s", config.AdbPath)
	}

	out, err := exec.Command(resolved, "version").Output()
	if err != nil {
		return fmt.Errorf("adb failed to run: %w", err)
	}
	version := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	log.Info().Str("adb", resolved).Str("version", version).Msg("adb toolchain OK")
	return nil
}
