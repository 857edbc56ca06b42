/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <room>",
	Short: "Prints the message history of a room, oldest first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		room := args[0]

		resp, err := http.Get(apiURL("/api/rooms/" + url.PathEscape(room) + "/messages"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching history for %s: %v\n", room, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "History request failed: %s\n", resp.Status)
			return
		}

		var messages []wireMessage
		if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding history: %v\n", err)
			return
		}

		for _, msg := range messages {
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04:05"), msg.Sender, msg.Text)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
