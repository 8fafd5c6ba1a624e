// ABOUTME: Interactive `quickreply init` command
// ABOUTME: Prompts for the bot token and notification settings, then writes a TOML config

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/quickreply/internal/config"
	"github.com/2389/quickreply/internal/conversation"
)

func runInit(in io.Reader, configPath string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println("    Interactive Setup")
	fmt.Println("    -----------------")
	fmt.Println()

	reader := bufio.NewReader(in)
	ask := func(prompt string) string {
		green.Print("    ▶ ")
		fmt.Print(prompt)
		answer, _ := reader.ReadString('\n')
		return strings.TrimSpace(answer)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		yellow.Printf("    Config already exists at %s\n", configPath)
		fmt.Print("    Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("    Aborted.")
			return nil
		}
		fmt.Println()
	}

	cfg := config.Default()

	cfg.Telegram.Token = ask("Bot token from @BotFather (or ${ENV_VAR}): ")
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("a bot token is required")
	}

	if author := ask("Name shown for your own messages [" + conversation.DefaultLocalAuthor + "]: "); author != "" {
		cfg.Console.LocalAuthor = author
	}

	if sound := ask("Sound command for new messages (optional, e.g. 'paplay ding.wav'): "); sound != "" {
		cfg.Notify.Command = strings.Fields(sound)
	}

	if strings.ToLower(ask("Sign outgoing messages with the desktop signature? [Y/n]: ")) == "n" {
		cfg.Sender.DisableSignature = true
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	fmt.Println()
	green.Printf("    ✓ Config written to %s\n", configPath)
	fmt.Println()
	fmt.Println("    Next steps:")
	fmt.Println("    1. Run: quickreply")
	fmt.Println("    2. Message your bot from Telegram, then /use 1 to reply")
	fmt.Println()

	return nil
}
