package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hallcrest/ordersync/internal/config"
)

const configTemplate = `# ordersync configuration

erp:
  # From the ERP developer console -> Integrations -> OAuth clients.
  client_id: ""
  client_secret: ""
  # Overrides for sandbox environments. Leave empty for production.
  base_url: ""
  auth_url: ""
  token_url: ""

mirror:
  # SQLite database file. Defaults to mirror.db next to this config file.
  db_path: ""
`

// runInit creates a sample configuration file.
func runInit() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	configPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println("Created config file:", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the config file with your ERP credentials")
	fmt.Println("  2. Run 'ordersync auth' to authorize with the ERP")
	fmt.Println("  3. Run 'ordersync -dry-run -start=2026-01-01' to test")

	tokenPath := filepath.Join(configDir, "token")
	fmt.Println()
	fmt.Printf("Token will be stored at: %s\n", tokenPath)

	return nil
}
