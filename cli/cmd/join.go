package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/mattn/go-shellwords"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Joins a room for a live chat session in a tview-based interface",
	Long: `Joins a room and starts a live chat session. Messages from other members
appear as they arrive, along with presence changes and typing indicators.

Slash commands inside the session:
  /join <room>   switch to another room
  /leave         leave the current room
  /quit          end the session`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			fmt.Fprintln(os.Stderr, "Error: not logged in. Run 'chathub login' first.")
			os.Exit(1)
		}
		if err := runChatSession(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Chat session error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func runChatSession(room string) error {
	ws, _, err := websocket.DefaultDialer.Dial(wsURL()+"?token="+url.QueryEscape(authToken), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer ws.Close()

	app := tview.NewApplication()

	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	inputField := tview.NewInputField().
		SetLabel("❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(500))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	loadHistory(textView, room)

	if err := ws.WriteJSON(clientEvent{Type: "join-room", Room: room}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	fmt.Fprintf(textView, "[green]Joined #%s. /quit to exit.\n", room)

	// Receive loop. All websocket writes happen on the tview event loop, so
	// there is only ever one concurrent writer.
	go func() {
		for {
			var ev serverEvent
			if err := ws.ReadJSON(&ev); err != nil {
				app.QueueUpdateDraw(func() {
					fmt.Fprintln(textView, "[red]Connection closed by server.")
				})
				return
			}
			app.QueueUpdateDraw(func() {
				printServerEvent(textView, ev)
				textView.ScrollToEnd()
			})
		}
	}()

	typing := false

	inputField.SetChangedFunc(func(text string) {
		if text != "" && !typing {
			typing = true
			ws.WriteJSON(clientEvent{Type: "typing"})
		}
		if text == "" && typing {
			typing = false
			ws.WriteJSON(clientEvent{Type: "stop-typing"})
		}
	})

	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(inputField.GetText())
		inputField.SetText("")
		typing = false
		if text == "" {
			return
		}

		if strings.HasPrefix(text, "/") {
			if quit := runSlashCommand(ws, textView, &room, text); quit {
				app.Stop()
			}
			return
		}

		if err := ws.WriteJSON(clientEvent{Type: "send", Text: text}); err != nil {
			fmt.Fprintf(textView, "[red]Failed to send message: %v\n", err)
		}
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		return event
	})

	return app.Run()
}

func runSlashCommand(ws *websocket.Conn, textView *tview.TextView, room *string, text string) bool {
	args, err := shellwords.Parse(strings.TrimPrefix(text, "/"))
	if err != nil || len(args) == 0 {
		fmt.Fprintf(textView, "[red]Bad command: %s\n", text)
		return false
	}

	switch args[0] {
	case "quit", "exit":
		return true
	case "leave":
		ws.WriteJSON(clientEvent{Type: "leave-room", Room: *room})
		fmt.Fprintf(textView, "[yellow]Left #%s\n", *room)
	case "join":
		if len(args) < 2 {
			fmt.Fprintln(textView, "[red]Usage: /join <room>")
			return false
		}
		ws.WriteJSON(clientEvent{Type: "leave-room", Room: *room})
		*room = args[1]
		ws.WriteJSON(clientEvent{Type: "join-room", Room: *room})
		fmt.Fprintf(textView, "[green]Joined #%s\n", *room)
	default:
		fmt.Fprintf(textView, "[red]Unknown command: /%s\n", args[0])
	}
	return false
}

func printServerEvent(textView *tview.TextView, ev serverEvent) {
	switch ev.Type {
	case "message-received":
		if ev.Message != nil {
			fmt.Fprintf(textView, "[white][%s] [blue]%s[white]: %s\n",
				ev.Message.CreatedAt.Local().Format("15:04:05"),
				ev.Message.Sender,
				ev.Message.Text)
		}
	case "presence-updated":
		names := make([]string, len(ev.Online))
		for i, u := range ev.Online {
			names[i] = u.Name
		}
		fmt.Fprintf(textView, "[yellow]online: %s\n", strings.Join(names, ", "))
	case "typing-started":
		if ev.User != nil {
			fmt.Fprintf(textView, "[gray]%s is typing...\n", ev.User.Name)
		}
	case "typing-stopped":
		// quiet; the next message or timeout already tells the story
	}
}

func loadHistory(textView *tview.TextView, room string) {
	resp, err := http.Get(apiURL("/api/rooms/" + url.PathEscape(room) + "/messages"))
	if err != nil {
		fmt.Fprintf(textView, "[red]Error loading past messages: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var messages []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		fmt.Fprintf(textView, "[red]Error decoding past messages: %v\n", err)
		return
	}
	for _, msg := range messages {
		fmt.Fprintf(textView, "[white][%s] [blue]%s[white]: %s\n",
			msg.CreatedAt.Local().Format("15:04:05"), msg.Sender, msg.Text)
	}
}
