package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
)

// printResponse renders resp per spec.md §6's exit-code convention (0
// Ok/payload, 1 Error) and sets cmd's process exit accordingly via
// os.Exit, matching the original CLI front-end's contract.
func printResponse(cmd *cobra.Command, resp control.Response) {
	switch resp.Status {
	case control.StatusError:
		pterm.Error.Println(resp.Message)
	case control.StatusOK:
		pterm.Success.Println(resp.Message)
	case control.StatusPayload:
		printPayload(cmd, resp.Payload)
	}
	if code := resp.ExitCode(); code != 0 {
		os.Exit(code)
	}
}

func printPayload(cmd *cobra.Command, payload interface{}) {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

// addJSONFlag registers the --json flag printPayload consults; every
// leaf subcommand that can return a payload calls this in its init.
func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output payloads as JSON (default; reserved for future table rendering)")
}
