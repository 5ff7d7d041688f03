package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EvanTenenbaum/terp-live/internal/config"
	"github.com/EvanTenenbaum/terp-live/internal/live"
	"github.com/EvanTenenbaum/terp-live/internal/tui/app"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "Base URL of the live server")
	roomCode := flag.String("room", "", "Room code to watch")
	token := flag.String("token", "", "Viewer session token")
	configPath := flag.String("config", "", "Path to config file (retry tuning)")
	flag.Parse()

	if *roomCode == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "Usage: livewatch -room CODE -token TOKEN [-server URL]")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	sup := live.New(live.Config{
		RoomCode:           *roomCode,
		Token:              *token,
		Exchanger:          live.NewHTTPExchanger(*server),
		Dialer:             &live.WebsocketDialer{BaseURL: deriveWSBase(*server)},
		ExchangeRetryDelay: cfg.Live.ExchangeRetryDelay,
		ChannelRetryDelay:  cfg.Live.ChannelRetryDelay,
	})

	// The supervisor logs reconnect attempts; keep them off the screen.
	if path := os.Getenv("LIVEWATCH_DEBUG"); path != "" {
		f, err := tea.LogToFile(path, "livewatch")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := app.New(sup, *roomCode)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveWSBase converts http://host:port → ws://host:port
func deriveWSBase(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return "ws://127.0.0.1:8080"
	}
	scheme := "ws"
	if strings.HasPrefix(u.Scheme, "https") {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
