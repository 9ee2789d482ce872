package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
	"github.com/zhouzirui/teams-relay/backend/internal/service/session"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

type chatOptions struct {
	userID   string
	userName string
}

func newChatCmd(global *globalOptions) *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the relay from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), global, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "local", "user id the conversation is keyed by")
	cmd.Flags().StringVar(&opts.userName, "name", "", "display name used in the welcome card")
	return cmd
}

func runChat(parent context.Context, global *globalOptions, opts *chatOptions, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, global)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	repl := newREPL(a.sessions, renderer, out, opts)
	defer repl.Close()

	return repl.Run(ctx)
}

type repl struct {
	sessions    *session.Service
	renderer    *glamour.TermRenderer
	out         io.Writer
	line        *liner.State
	historyFile string
	opts        *chatOptions
}

func newREPL(sessions *session.Service, renderer *glamour.TermRenderer, out io.Writer, opts *chatOptions) *repl {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &repl{
		sessions:    sessions,
		renderer:    renderer,
		out:         out,
		line:        line,
		historyFile: historyPath(),
		opts:        opts,
	}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func historyPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "teams-relay", "chat_history")
}

// Close saves the prompt history and restores the terminal.
func (r *repl) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// Run reads lines until EOF, Ctrl+C or /exit.
func (r *repl) Run(ctx context.Context) error {
	r.print(r.sessions.Welcome(r.opts.userName))
	fmt.Fprintln(r.out, infoStyle.Render("Type /exit to quit."))

	for {
		input, err := r.line.Prompt("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "/exit" || input == "/quit" {
			return nil
		}
		if input != "" {
			r.line.AppendHistory(input)
		}

		reply, err := r.sessions.HandleTurn(ctx, chat.Inbound{
			UserID:   r.opts.userID,
			UserName: r.opts.userName,
			Text:     input,
		})
		if err != nil {
			fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		r.print(reply)
	}
}

func (r *repl) print(reply chat.Reply) {
	text := reply.PlainText()
	rendered, err := r.renderer.Render(text)
	if err != nil {
		rendered = text + "\n"
	}
	fmt.Fprint(r.out, promptStyle.Render("bot>")+" "+rendered)
}
