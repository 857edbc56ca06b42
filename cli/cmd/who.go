/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

// whoCmd represents the who command
var whoCmd = &cobra.Command{
	Use:   "who",
	Short: "Lists the users currently online.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(apiURL("/api/online"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching online users: %v\n", err)
			return
		}
		defer resp.Body.Close()

		var result struct {
			Count int        `json:"count"`
			Users []wireUser `json:"users"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
			return
		}

		fmt.Printf("%d online\n", result.Count)
		for _, user := range result.Users {
			fmt.Printf("  %s\n", user.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoCmd)
}
