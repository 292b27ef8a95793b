// Command nexuscortex-console is a readline-based REPL that attaches to
// a running nexuscortex daemon over its websocket transport. Grounded on
// haricheung-agentic-shell's cmd/agsh/main.go: readline.NewEx with a
// history file, a goroutine draining the connection's inbound frames
// while Readline blocks on the next line, and Ctrl+C/Ctrl+D handled the
// same way (ErrInterrupt warns once, io.EOF exits cleanly).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/gorilla/websocket"
)

type wireEvent struct {
	Type       string `json:"type"`
	Presence   string `json:"presence,omitempty"`
	OutputID   string `json:"output_id,omitempty"`
	Content    string `json:"content,omitempty"`
	Status     string `json:"status,omitempty"`
	ConsentKey string `json:"consent_key,omitempty"`
}

type wireCommand struct {
	Kind       string `json:"kind"`
	MicOn      bool   `json:"mic_on,omitempty"`
	ConsentKey string `json:"consent_key,omitempty"`
	Decision   string `json:"decision,omitempty"`
}

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8081/", "websocket address of a running nexuscortex daemon")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	cacheDir, _ := os.UserCacheDir()
	historyPath := ""
	if cacheDir != "" {
		dir := filepath.Join(cacheDir, "nexuscortex")
		if err := os.MkdirAll(dir, 0755); err == nil {
			historyPath = filepath.Join(dir, "console_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36m>\033[0m ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init error: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("\033[1m\033[36mnexuscortex console\033[0m — attached to %s  \033[2m(exit/Ctrl-D to quit)\033[0m\n", *addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev wireEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			printEvent(ev)
		}
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Println("\n\033[2m(Ctrl+C again or type 'exit' to quit)\033[0m")
			line2, err2 := rl.Readline()
			if err2 == readline.ErrInterrupt || strings.TrimSpace(line2) == "exit" {
				return
			}
			line, err = line2, err2
		}
		if err != nil {
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return
		}

		cmd, ok := parseCommand(input)
		if !ok {
			fmt.Println("unrecognized command: attach | suspend | resume | mic-on | mic-off | consent <key> granted|declined")
			continue
		}
		if err := conn.WriteJSON(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			return
		}

		select {
		case <-done:
			return
		default:
		}
	}
}

func parseCommand(input string) (wireCommand, bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return wireCommand{}, false
	}
	switch fields[0] {
	case "attach":
		return wireCommand{Kind: "attach"}, true
	case "suspend":
		return wireCommand{Kind: "suspend"}, true
	case "resume":
		return wireCommand{Kind: "resume"}, true
	case "mic-on":
		return wireCommand{Kind: "toggle_mic", MicOn: true}, true
	case "mic-off":
		return wireCommand{Kind: "toggle_mic", MicOn: false}, true
	case "consent":
		if len(fields) != 3 {
			return wireCommand{}, false
		}
		return wireCommand{Kind: "consent_resolved", ConsentKey: fields[1], Decision: fields[2]}, true
	default:
		return wireCommand{}, false
	}
}

func printEvent(ev wireEvent) {
	switch ev.Type {
	case "presence_update":
		fmt.Printf("\033[2m[presence]\033[0m %s\n", ev.Presence)
	case "output_event":
		fmt.Printf("\033[1m[%s]\033[0m %s\n", ev.Status, ev.Content)
	case "ask_memory_consent":
		fmt.Printf("\033[33m[consent requested]\033[0m %s\n", ev.ConsentKey)
	case "access_denied":
		fmt.Println("\033[31m[access denied]\033[0m")
	default:
		if b, err := json.Marshal(ev); err == nil {
			fmt.Println(string(b))
		}
	}
}
