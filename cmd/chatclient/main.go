package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/korylprince/egpt-chat/chatbot"
	"github.com/korylprince/egpt-chat/logging"
	"go.uber.org/zap"
)

const prompt = "\nYou: "

// terminalView prints transcript entries as they are appended. Searches finish
// in the background, so writes are serialized.
type terminalView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *terminalView) Append(m chatbot.Message) {
	// the user already sees what they typed
	if m.Role == chatbot.RoleUser {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, chatbot.RenderText(m))
}

// ScrollToEnd is a no-op; terminals scroll on output
func (v *terminalView) ScrollToEnd() {}

// ClearInput is a no-op; the line was consumed when it was read
func (v *terminalView) ClearInput() {}

func (v *terminalView) print(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprint(v.out, s)
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// printHistory prints every message of the session, including the user's own
func printHistory(view *terminalView, history *chatbot.Transcript) {
	if history.Len() == 0 {
		view.print("(no messages yet)\n")
		return
	}
	for _, m := range history.Messages() {
		view.print(chatbot.RenderText(m) + "\n")
	}
}

// run reads queries from in until it ends, the user exits, or ctx is done.
// Lines typed while a search is pending are read once it finishes.
func run(ctx context.Context, client *chatbot.Client, view *terminalView, history *chatbot.Transcript, in io.Reader, logger *zap.Logger) {
	lines := readLines(in)
	var pending <-chan error

	view.print(prompt)
	for {
		input := lines
		if pending != nil {
			input = nil
		}

		select {
		case <-ctx.Done():
			view.print("\nGoodbye!\n")
			return

		case line, ok := <-input:
			if !ok {
				view.print("\nGoodbye!\n")
				return
			}

			line = strings.TrimSpace(line)
			if cmd := strings.ToLower(line); cmd == "exit" || cmd == "quit" {
				view.print("Goodbye!\n")
				return
			} else if cmd == "history" {
				printHistory(view, history)
				view.print(prompt)
				continue
			}

			sub, err := client.Start(ctx, line)
			switch {
			case errors.Is(err, chatbot.ErrEmptyQuery):
				view.print(prompt)
				continue
			case err != nil:
				logger.Error("Could not submit query", zap.Error(err))
				view.print(prompt)
				continue
			}
			pending = sub.Done

		case err := <-pending:
			pending = nil
			if err != nil {
				logger.Debug("Search failed", zap.Error(err))
			}
			view.print(prompt)
		}
	}
}

func main() {
	server := flag.String("server", "http://localhost:8000", "Search backend URL (http/https)")
	debug := flag.Bool("debug", false, "Enable debug logging on stderr")
	flag.Parse()

	logger, err := logging.NewConsoleLogger(*debug)
	if err != nil {
		fmt.Printf("Could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !strings.HasPrefix(*server, "http://") && !strings.HasPrefix(*server, "https://") {
		fmt.Println("Error: -server must be an http or https URL")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	searcher := chatbot.NewSearchClient(*server)
	view := &terminalView{out: os.Stdout}
	history := chatbot.NewTranscript()
	client := chatbot.NewClient(searcher, chatbot.NewMultiView(history, view), logger)

	fmt.Printf("Connected to %s (type \"history\" to review, \"exit\" to quit)\n", searcher.Endpoint())
	run(ctx, client, view, history, os.Stdin, logger)
}
