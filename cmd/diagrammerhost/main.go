package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/QR-Madness/diagrammer-host/internal/app"
	"github.com/QR-Madness/diagrammer-host/internal/config"
)

var version = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "Network mode: \"localhost\" or \"lan\" (overrides config)")
	flag.IntVar(&port, "port", 0, "Listen port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("diagrammer-host %s\n", version)
		os.Exit(0)
	}

	if configPath == "" {
		loader := config.NewLoader()
		found, err := loader.FindConfig()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx := context.Background()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("App error: %v", err)
	}
}

// runInit handles "diagrammerhost init": an interactive first-run
// prompt that writes a fully-commented diagrammer.hjson.
func runInit() error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(os.Args[2:])

	if *showHelp {
		fmt.Println(`Usage: diagrammerhost init [options]

Create a new diagrammer.hjson configuration file in the current directory.

Options:
  -h, -help    Show this help message`)
		return nil
	}

	configFile := "diagrammer.hjson"
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("diagrammer-host Configuration Setup")
	fmt.Println("====================================")
	fmt.Println()
	fmt.Println("Press Enter to accept defaults shown in [brackets].")
	fmt.Println()

	portStr := prompt(reader, "Server port", "8787")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8787
	}

	lan := prompt(reader, "Allow connections from other devices on the LAN? (y/n)", "n")
	networkMode := "localhost"
	if strings.ToLower(lan) == "y" {
		networkMode = "lan"
	}

	fmt.Println()
	fmt.Println("The first admin account is created automatically on first start.")
	adminUsername := prompt(reader, "Admin username", "admin")
	adminPassword := prompt(reader, "Admin password", "")

	configContent := generateConfig(port, networkMode, adminUsername, adminPassword)

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit diagrammer.hjson as needed")
	fmt.Println("  2. Run: ./diagrammerhost")
	fmt.Printf("  3. Connect at: http://localhost:%d\n", port)
	fmt.Println()

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func generateConfig(port int, networkMode, adminUsername, adminPassword string) string {
	var sb strings.Builder

	sb.WriteString(`{
  // =============================================================================
  // diagrammer-host Configuration
  // =============================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).

  // ---------------------------------------------------------------------------
  // Network
  // ---------------------------------------------------------------------------

  // "localhost" binds to 127.0.0.1 only; "lan" binds to 0.0.0.0 so other
  // devices on the local network can connect.
  networkMode: "`)
	sb.WriteString(networkMode)
	sb.WriteString(`"

  // Listen port.
  port: `)
	sb.WriteString(strconv.Itoa(port))
	sb.WriteString(`

  // Advisory cap on simultaneous connections; 0 means unlimited.
  // maxConnections: 16

  // Session token lifetime, in seconds.
  // tokenTtl: 86400

  // ---------------------------------------------------------------------------
  // Storage
  // ---------------------------------------------------------------------------

  // Directory housing users.json and team_documents/.
  dataDir: "."

  // ---------------------------------------------------------------------------
  // First-run admin account
  // ---------------------------------------------------------------------------
  //
  // Created automatically the first time the server starts with an empty
  // credential store. Once the store is non-empty, edits here create or
  // change no account, but the username and password still seed the
  // session token signing secret.
  bootstrapAdmin: {
    username: "`)
	sb.WriteString(escapeHJSONValue(adminUsername))
	sb.WriteString(`"
    password: "`)
	sb.WriteString(escapeHJSONValue(adminPassword))
	sb.WriteString(`"
    // displayName: "Admin"
  }
}
`)

	return sb.String()
}
