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

// signupCmd represents the signup command
var signupCmd = &cobra.Command{
	Use:   "signup <username> <password>",
	Short: "Creates a new account on the chathub server.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		body, _ := json.Marshal(map[string]string{
			"username": args[0],
			"password": args[1],
		})

		resp, err := http.Post(apiURL("/api/signup"), "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating account: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			var errResp struct {
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&errResp)
			fmt.Fprintf(os.Stderr, "Signup failed: %s\n", errResp.Error)
			return
		}

		var created struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
			return
		}
		fmt.Printf("Account created: %s\n", created.Username)
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
}
