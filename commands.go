package main

import (
	"bufio"
	"fmt"
	"io"
	"melcloud2mqtt/configflow"
	"melcloud2mqtt/store"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password and store the account token",
	Long: `Log in to MELCloud and store the resulting token as a config entry.
Credentials come from MELCLOUD_EMAIL and MELCLOUD_PASSWORD or the config file;
missing ones are asked for on the terminal.`,
	RunE: runLogin,
}

var importCmd = &cobra.Command{
	Use:   "import [token]",
	Short: "Store an existing MELCloud token as a config entry",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "melcloud2mqtt %s\n", rootCmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	entries, err := store.NewFile(config.EntriesFile)
	if err != nil {
		return err
	}
	flow := newFlow(config, entries)

	form, err := flow.StepUser(cmd.Context(), nil)
	if err != nil {
		return err
	}
	known := map[string]string{
		configflow.FIELD_EMAIL:    config.Email,
		configflow.FIELD_PASSWORD: config.Password,
	}
	input, err := askFields(cmd.InOrStdin(), cmd.OutOrStdout(), form.Fields, known)
	if err != nil {
		return err
	}

	result, err := flow.StepUser(cmd.Context(), input)
	if err != nil {
		return err
	}
	return reportResult(cmd.OutOrStdout(), result)
}

func runImport(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	entries, err := store.NewFile(config.EntriesFile)
	if err != nil {
		return err
	}
	token := config.Token
	if len(args) == 1 {
		token = args[0]
	}

	result, err := newFlow(config, entries).StepImport(cmd.Context(), map[string]string{configflow.FIELD_TOKEN: token})
	if err != nil {
		return err
	}
	if result.Type == configflow.RESULT_FORM {
		return fmt.Errorf("no token given, use login instead")
	}
	return reportResult(cmd.OutOrStdout(), result)
}

// askFields fills the form fields that are not known yet from in, one line per field
func askFields(in io.Reader, out io.Writer, fields []string, known map[string]string) (map[string]string, error) {
	input := make(map[string]string, len(fields))
	reader := bufio.NewReader(in)
	for _, field := range fields {
		if v := known[field]; v != "" {
			input[field] = v
			continue
		}
		fmt.Fprintf(out, "%s: ", field)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, fmt.Errorf("read %s: %w", field, err)
		}
		input[field] = strings.TrimSpace(line)
	}
	return input, nil
}

func describeResult(result *configflow.Result) string {
	switch result.Type {
	case configflow.RESULT_CREATE_ENTRY:
		return fmt.Sprintf("created entry %s", result.Title)
	case configflow.RESULT_ABORT:
		if email := result.DescriptionPlaceholders[configflow.FIELD_EMAIL]; email != "" {
			return fmt.Sprintf("%s (%s)", result.Reason, email)
		}
		return result.Reason
	}
	return result.Type
}

// reportResult prints the outcome of a flow. Aborts other than an updated entry are errors.
func reportResult(out io.Writer, result *configflow.Result) error {
	fmt.Fprintln(out, describeResult(result))
	if result.Type == configflow.RESULT_ABORT && result.Reason != configflow.REASON_ALREADY_CONFIGURED {
		return fmt.Errorf("login failed: %s", result.Reason)
	}
	return nil
}
