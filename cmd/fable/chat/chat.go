// Package chatcmder provides the chat command for reading a book
// interactively from the terminal against a running fable server.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fablehq/fable/pkg/cliui"
	"github.com/fablehq/fable/pkg/config"
	"github.com/fablehq/fable/pkg/dotdir"
	"github.com/fablehq/fable/pkg/logger"
	"github.com/fablehq/fable/pkg/sse"
	"github.com/fablehq/fable/pkg/utils"
)

var (
	youPrompt   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	storyPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("story> ")
)

type chatCommander struct {
	apiTarget string
	modelID   string
	newBook   bool
	debug     bool
	configDir string

	logger *slog.Logger
}

// chatRequest mirrors the server's chat request body.
type chatRequest struct {
	BookID  string `json:"book_id,omitempty"`
	Choice  string `json:"choice,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// chatResponse mirrors the server's terminal "done" event payload.
type chatResponse struct {
	BookID  string   `json:"book_id"`
	Page    string   `json:"page"`
	Choices []string `json:"choices"`
}

// bookView is the subset of the book document the resume path needs.
type bookView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Pages []struct {
		Text    string   `json:"text"`
		Choices []string `json:"choices"`
	} `json:"pages"`
}

const chatLongDesc string = `Read a book interactively from the terminal.

The chat command streams pages from a running fable server over SSE and
prompts for a choice after each page. Reading position is bookmarked in the
.fable/ directory, so re-running "fable chat" resumes the same book.

Use --new to abandon the bookmark and start a fresh book.

Examples:
  fable chat
  fable chat --new
  fable chat --model llama-creative --api-target http://localhost:8080`

const chatShortDesc string = "Read a book interactively from the terminal"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfger, err := config.NewConfiger(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Fable API server URL")
	cmd.Flags().StringVarP(&cmder.modelID, "model", "m", "", "Model preset ID (defaults to the server's default preset)")
	cmd.Flags().BoolVar(&cmder.newBook, "new", false, "Abandon the bookmark and start a fresh book")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	ddm := dotdir.NewManager()

	if c.newBook {
		if err := ddm.ClearBookmark(c.configDir); err != nil {
			return fmt.Errorf("clearing bookmark: %w", err)
		}
	}

	bookmark, err := ddm.LoadBookmark(c.configDir)
	if err != nil {
		return fmt.Errorf("loading bookmark: %w", err)
	}

	var (
		bookID  string
		choices []string
	)

	fmt.Println()
	if bookmark != nil && bookmark.BookID != "" {
		book, err := c.fetchBook(bookmark.BookID)
		if err != nil {
			// Stale bookmark (server wiped, different data dir). Start over.
			c.logger.Debug("bookmark points at unknown book, starting fresh",
				"book_id", bookmark.BookID, "error", err)
			fmt.Printf("  %s Bookmark not found on server, starting a new book\n", cliui.DimStyle.Render("●"))
		} else {
			bookID = book.ID
			fmt.Printf("  %s Resuming %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(utils.Truncate(book.ID, 16)),
				cliui.DimStyle.Render(fmt.Sprintf("(%d pages)", len(book.Pages))),
			)

			if len(book.Pages) > 0 {
				last := book.Pages[len(book.Pages)-1]
				fmt.Printf("\n%s%s\n", storyPrompt, last.Text)
				choices = last.Choices
			}
		}
	} else {
		fmt.Printf("  %s New book\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Pick a choice by number, or type your own. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	// A fresh book opens with an unprompted first page.
	if bookID == "" {
		resp, err := c.streamPage(bookID, "")
		if err != nil {
			return err
		}
		bookID = resp.BookID
		choices = resp.Choices

		if err := ddm.SaveBookmark(&dotdir.BookmarkState{BookID: bookID}, c.configDir); err != nil {
			c.logger.Warn("saving bookmark failed", "error", err)
		}
	}

	for {
		printChoices(choices)

		fmt.Print(youPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		choice := pickChoice(input, choices)

		resp, err := c.streamPage(bookID, choice)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		bookID = resp.BookID
		choices = resp.Choices

		if err := ddm.SaveBookmark(&dotdir.BookmarkState{BookID: bookID, LastChoice: choice}, c.configDir); err != nil {
			c.logger.Warn("saving bookmark failed", "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// fetchBook loads the full book document for bookmark resume.
func (c *chatCommander) fetchBook(bookID string) (*bookView, error) {
	resp, err := http.Get(c.apiTarget + "/api/books/" + bookID)
	if err != nil {
		return nil, fmt.Errorf("fetching book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	book := &bookView{}
	if err := json.NewDecoder(resp.Body).Decode(book); err != nil {
		return nil, fmt.Errorf("parsing book: %w", err)
	}

	return book, nil
}

// streamPage requests the next page over SSE, printing tokens as they arrive.
// Thinking-mode content renders dimmed so the reader can tell deliberation
// from story prose. Returns the terminal "done" payload.
func (c *chatCommander) streamPage(bookID, choice string) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		BookID:  bookID,
		Choice:  choice,
		ModelID: c.modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("requesting page",
		"api_target", c.apiTarget,
		"book_id", bookID,
		"choice", choice,
	)

	url := c.apiTarget + "/api/chat/stream"
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	client := &http.Client{
		// Page generation can be slow
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	fmt.Printf("\n%s", storyPrompt)

	reader := sse.NewReader(resp.Body)
	thinking := false

	for {
		ev, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
		if ev == nil {
			break
		}

		switch ev.Type {
		case "thinking":
			var payload struct {
				Thinking bool `json:"thinking"`
			}
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				c.logger.Debug("unparseable thinking event", "data", ev.Data, "error", err)
				continue
			}
			if payload.Thinking && !thinking {
				fmt.Print(cliui.ThinkingStyle.Render("(thinking) "))
			}
			thinking = payload.Thinking

		case "error":
			var payload struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				return nil, fmt.Errorf("stream failed: %s", ev.Data)
			}
			return nil, fmt.Errorf("stream failed: %s", payload.Error)

		case "done":
			done := &chatResponse{}
			if err := json.Unmarshal([]byte(ev.Data), done); err != nil {
				return nil, fmt.Errorf("parsing done event: %w", err)
			}
			fmt.Println()
			return done, nil

		default:
			var payload struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
				c.logger.Debug("unparseable token event", "data", ev.Data, "error", err)
				continue
			}
			if payload.Token == "" {
				continue
			}
			if thinking {
				fmt.Print(cliui.ThinkingStyle.Render(payload.Token))
			} else {
				fmt.Print(payload.Token)
			}
		}
	}

	return nil, fmt.Errorf("stream ended without a done event")
}

// printChoices renders the numbered choice menu for the current page.
func printChoices(choices []string) {
	if len(choices) == 0 {
		return
	}

	fmt.Println()
	for i, choice := range choices {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%d.", i+1)),
			choice,
		)
	}
	fmt.Println()
}

// pickChoice resolves reader input: a number selects from the menu, anything
// else is taken verbatim as a freeform choice.
func pickChoice(input string, choices []string) string {
	n, err := strconv.Atoi(input)
	if err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1]
	}
	return input
}
