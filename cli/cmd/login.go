/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Logs in and stores the session token in the config file.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		body, _ := json.Marshal(map[string]string{
			"username": args[0],
			"password": args[1],
		})

		resp, err := http.Post(apiURL("/api/login"), "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error logging in: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var errResp struct {
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&errResp)
			fmt.Fprintf(os.Stderr, "Login failed: %s\n", errResp.Error)
			return
		}

		var result struct {
			Token string   `json:"token"`
			User  wireUser `json:"user"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
			return
		}

		if err := saveToken(result.Token); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving token: %v\n", err)
			return
		}
		authToken = result.Token
		fmt.Printf("Logged in as %s\n", result.User.Name)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
